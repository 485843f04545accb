package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mosaicnetworks/weave/src/node"
	"github.com/mosaicnetworks/weave/src/registry"
	"github.com/mosaicnetworks/weave/src/topology"
	"github.com/sirupsen/logrus"
)

// Operator is the set of operations the console drives. weave.Engine
// implements it.
type Operator interface {
	SendPayload(id uint32, text string) error
	CreateNode(id uint32, children []uint32) error
	AddChild(id, child uint32) error
	RemoveChild(id, child uint32) error
	Kill(id uint32) error
	Nodes() []registry.Handle
	Node(id uint32) (node.Info, error)
}

var errQuit = errors.New("quit")

type command struct {
	usage string
	help  string
	nargs int // minimum number of arguments
	run   func(c *Console, args []string) error
}

// commands is set in init since help reads it.
var commands map[string]command

func init() {
	commands = map[string]command{
		"send": {
			usage: "send <id> <text>",
			help:  "send a payload to a node",
			nargs: 2,
			run:   (*Console).send,
		},
		"create": {
			usage: "create <id> <children|NO>",
			help:  "start a new node with a comma-separated list of children",
			nargs: 2,
			run:   (*Console).create,
		},
		"add": {
			usage: "add <id> <child>",
			help:  "add a child to a node",
			nargs: 2,
			run:   (*Console).add,
		},
		"remove": {
			usage: "remove <id> <child>",
			help:  "remove a child from a node",
			nargs: 2,
			run:   (*Console).remove,
		},
		"kill": {
			usage: "kill <id>",
			help:  "terminate a node",
			nargs: 1,
			run:   (*Console).kill,
		},
		"nodes": {
			usage: "nodes",
			help:  "list nodes",
			run:   (*Console).nodes,
		},
		"info": {
			usage: "info <id>",
			help:  "show the children and resolved edges of a node",
			nargs: 1,
			run:   (*Console).info,
		},
		"help": {
			usage: "help",
			help:  "show this message",
			run:   (*Console).help,
		},
		"quit": {
			usage: "quit",
			help:  "stop the process",
			run:   func(*Console, []string) error { return errQuit },
		},
	}
}

// Console reads operator commands line by line and applies them. Failed
// commands are reported on the output and never end the loop.
type Console struct {
	op     Operator
	in     io.Reader
	out    io.Writer
	logger *logrus.Entry
}

// NewConsole ...
func NewConsole(op Operator, in io.Reader, out io.Writer, logger *logrus.Entry) *Console {
	return &Console{
		op:     op,
		in:     in,
		out:    out,
		logger: logger,
	}
}

// Run processes commands until quit or the end of the input.
func (c *Console) Run() error {
	scanner := bufio.NewScanner(c.in)

	c.prompt()
	for scanner.Scan() {
		if err := c.Exec(scanner.Text()); err != nil {
			if err == errQuit {
				return nil
			}
			fmt.Fprintf(c.out, "error: %v\n", err)
		}
		c.prompt()
	}

	return scanner.Err()
}

// Exec runs a single command line.
func (c *Console) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	cmd, ok := commands[fields[0]]
	if !ok {
		return fmt.Errorf("unknown command %q, try help", fields[0])
	}

	args := fields[1:]
	if len(args) < cmd.nargs {
		return fmt.Errorf("usage: %s", cmd.usage)
	}

	c.logger.WithField("command", line).Debug("Exec")

	return cmd.run(c, args)
}

func (c *Console) prompt() {
	fmt.Fprint(c.out, "> ")
}

func (c *Console) send(args []string) error {
	id, err := topology.ParseID(args[0])
	if err != nil {
		return err
	}
	text := strings.Join(args[1:], " ")
	if err := c.op.SendPayload(id, text); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "sent %q to %d\n", text, id)
	return nil
}

func (c *Console) create(args []string) error {
	id, err := topology.ParseID(args[0])
	if err != nil {
		return err
	}
	children, err := topology.ParseChildren(args[1])
	if err != nil {
		return err
	}
	if err := c.op.CreateNode(id, children); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "created %s\n", topology.NewDeclaration(id, children))
	return nil
}

func (c *Console) add(args []string) error {
	id, child, err := parsePair(args)
	if err != nil {
		return err
	}
	if err := c.op.AddChild(id, child); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "added %d to %d\n", child, id)
	return nil
}

func (c *Console) remove(args []string) error {
	id, child, err := parsePair(args)
	if err != nil {
		return err
	}
	if err := c.op.RemoveChild(id, child); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "removed %d from %d\n", child, id)
	return nil
}

func (c *Console) kill(args []string) error {
	id, err := topology.ParseID(args[0])
	if err != nil {
		return err
	}
	if err := c.op.Kill(id); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "killed %d\n", id)
	return nil
}

func (c *Console) nodes(args []string) error {
	for _, h := range c.op.Nodes() {
		fmt.Fprintf(c.out, "%d\t%s\n", h.ID, h.Addr)
	}
	return nil
}

func (c *Console) info(args []string) error {
	id, err := topology.ParseID(args[0])
	if err != nil {
		return err
	}
	info, err := c.op.Node(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "id:       %d\n", info.ID)
	fmt.Fprintf(c.out, "state:    %s\n", info.State)
	fmt.Fprintf(c.out, "addr:     %s\n", info.Addr)
	fmt.Fprintf(c.out, "children: %s\n", topology.NewDeclaration(id, info.Children).ChildrenString())

	ids := make([]uint32, 0, len(info.Edges))
	for child := range info.Edges {
		ids = append(ids, child)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, child := range ids {
		fmt.Fprintf(c.out, "edge:     %d -> %s\n", child, info.Edges[child])
	}

	fmt.Fprintf(c.out, "payloads: %d\n", info.PayloadsReceived)
	return nil
}

func (c *Console) help(args []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cmd := commands[name]
		fmt.Fprintf(c.out, "  %-28s %s\n", cmd.usage, cmd.help)
	}
	return nil
}

func parsePair(args []string) (uint32, uint32, error) {
	id, err := topology.ParseID(args[0])
	if err != nil {
		return 0, 0, err
	}
	child, err := topology.ParseID(args[1])
	if err != nil {
		return 0, 0, err
	}
	return id, child, nil
}
