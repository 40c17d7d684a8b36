package demo

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hetu-project/causality-engine/pkg/causality"
	"github.com/hetu-project/causality-engine/pkg/eventlog"
)

// RunInteractive drives the simulated processes from a terminal menu. It
// reads commands from in and writes narration to stdout; it returns when
// the user quits or the input ends.
func (c *Coordinator) RunInteractive(in io.Reader) {
	scanner := bufio.NewScanner(in)

	fmt.Println("=== Causality Engine Interactive Mode ===")
	fmt.Printf("Processes: %v\n", c.ProcessIDs)

	for {
		fmt.Println("\nChoose an action:")
		fmt.Println("  1) stamp a local event")
		fmt.Println("  2) send a sum request")
		fmt.Println("  3) show all clocks")
		fmt.Println("  4) show a process's event log")
		fmt.Println("  5) compare two processes")
		fmt.Println("  6) quit")
		fmt.Print("> ")

		choice, ok := readLine(scanner)
		if !ok {
			return
		}

		switch choice {
		case "1":
			c.interactiveLocal(scanner)
		case "2":
			c.interactiveSend(scanner)
		case "3":
			for _, id := range c.ProcessIDs {
				fmt.Printf("%s: %s\n", id, c.Processes[id].Format())
			}
		case "4":
			c.interactiveLog(scanner)
		case "5":
			c.interactiveCompare(scanner)
		case "6", "q", "quit":
			fmt.Println("Bye.")
			return
		default:
			fmt.Printf("Unknown choice %q\n", choice)
		}
	}
}

func (c *Coordinator) interactiveLocal(scanner *bufio.Scanner) {
	id, ok := c.pickProcess(scanner, "Which process stamps the event?")
	if !ok {
		return
	}
	fmt.Print("Description: ")
	description, ok := readLine(scanner)
	if !ok {
		return
	}
	if description == "" {
		description = "local event"
	}
	c.stampLocal(id, description)
}

func (c *Coordinator) interactiveSend(scanner *bufio.Scanner) {
	from, ok := c.pickProcess(scanner, "Sender?")
	if !ok {
		return
	}
	to, ok := c.pickProcess(scanner, "Receiver?")
	if !ok {
		return
	}
	if from == to {
		fmt.Println("A process cannot send to itself.")
		return
	}

	start, ok := readInt(scanner, "Range start: ")
	if !ok {
		return
	}
	end, ok := readInt(scanner, "Range end: ")
	if !ok {
		return
	}

	if err := c.runExchange(from, to, start, end); err != nil {
		fmt.Printf("⚠️  exchange failed: %v\n", err)
		fmt.Printf("%s clock unchanged at %s\n", from, c.Processes[from].Format())
	}
}

func (c *Coordinator) interactiveLog(scanner *bufio.Scanner) {
	id, ok := c.pickProcess(scanner, "Which process's log?")
	if !ok {
		return
	}

	p := c.Processes[id]
	fmt.Printf("%s has %d events, by type: %v\n", id, p.Log().Len(), p.Log().SummarizeByType())
	for _, a := range eventlog.PairwiseCausality(p.Log().Tail(10)) {
		if a.First {
			fmt.Printf("  %-22s %-42s %s\n", a.Type, a.Description, a.Snapshot.Format())
		} else {
			fmt.Printf("  %-22s %-42s %s (%s vs prev)\n",
				a.Type, a.Description, a.Snapshot.Format(), a.RelationToPrev)
		}
	}
}

func (c *Coordinator) interactiveCompare(scanner *bufio.Scanner) {
	a, ok := c.pickProcess(scanner, "First process?")
	if !ok {
		return
	}
	b, ok := c.pickProcess(scanner, "Second process?")
	if !ok {
		return
	}

	snapA := c.Processes[a].Snapshot()
	snapB := c.Processes[b].Snapshot()
	fmt.Printf("%s %s vs %s %s: %s\n",
		a, snapA.Format(), b, snapB.Format(), causality.Compare(snapA, snapB))
}

// pickProcess prompts until the user names a known process or input ends.
func (c *Coordinator) pickProcess(scanner *bufio.Scanner, prompt string) (string, bool) {
	for {
		fmt.Printf("%s %v: ", prompt, c.ProcessIDs)
		id, ok := readLine(scanner)
		if !ok {
			return "", false
		}
		if _, known := c.Processes[id]; known {
			return id, true
		}
		fmt.Printf("Unknown process %q\n", id)
	}
}

func readLine(scanner *bufio.Scanner) (string, bool) {
	if !scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(scanner.Text()), true
}

func readInt(scanner *bufio.Scanner, prompt string) (int64, bool) {
	for {
		fmt.Print(prompt)
		text, ok := readLine(scanner)
		if !ok {
			return 0, false
		}
		n, err := strconv.ParseInt(text, 10, 64)
		if err == nil {
			return n, true
		}
		fmt.Printf("Not a number: %q\n", text)
	}
}
