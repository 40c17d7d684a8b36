package dgraph

import (
	"context"
	"fmt"
	"log"

	"github.com/dgraph-io/dgo/v210"
	"github.com/dgraph-io/dgo/v210/protos/api"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Connect dials Dgraph at the given address and installs the event schema.
// Graph export is optional, so failures are returned to the caller instead
// of aborting the process.
func Connect(address string) (*dgo.Dgraph, error) {
	conn, err := grpc.Dial(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Dgraph at %s: %w", address, err)
	}

	dc := api.NewDgraphClient(conn)
	client := dgo.NewDgraphClient(dc)

	op := &api.Operation{
		Schema: `
			event_id: string @index(exact) .
			event_type: string @index(exact) .
			description: string .
			clock: string .
			depth: int .
			process: string @index(exact) .
			parent: [uid] .
			type Event {
				event_id
				event_type
				description
				clock
				depth
				process
				parent
			}
		`,
	}

	if err := client.Alter(context.Background(), op); err != nil {
		return nil, fmt.Errorf("failed to set Dgraph schema: %w", err)
	}

	log.Println("Connected to Dgraph and schema set successfully")
	return client, nil
}
