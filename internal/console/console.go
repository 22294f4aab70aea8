// Package console implements the command interpreter working directly on a
// storage engine.
package console

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/hbnb/hbnb/internal/models"
	"github.com/hbnb/hbnb/internal/storage"
	flag "github.com/spf13/pflag"
)

type Console struct {
	engine   storage.Engine
	registry *models.Registry

	commands []*Command
}

func New(engine storage.Engine, registry *models.Registry) *Console {
	c := &Console{
		engine:   engine,
		registry: registry,

		commands: nil,
	}

	c.commands = []*Command{
		c.command("all [Class]", "List every instance, optionally of one class", c.all),
		c.command("show <Class> <id>", "Print one instance", c.show),
		c.command("create <Class> [key=value...]", "Create an instance and print its id", c.create),
		c.command("update <Class> <id> key=value...", "Change attributes of an instance", c.update),
		c.command("destroy <Class> <id>", "Delete an instance and its dependents", c.destroy),
		c.command("count <Class>", "Print the number of instances of a class", c.count),
		c.command("cities <state-id>", "List the cities of a state", c.cities),
	}

	return c
}

func (c *Console) command(
	usage, short string,
	exec func(ctx context.Context, out io.Writer, args []string) error,
) *Command {
	cmd := &Command{Flags: nil, Usage: usage, Short: short, Exec: exec}
	cmd.Flags = flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)

	return cmd
}

// Run dispatches args[0] to its command. Returns the exit code.
func (c *Console) Run(ctx context.Context, out, errOut io.Writer, args []string) int {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		c.PrintUsage(out)
		return 0
	}

	idx := slices.IndexFunc(c.commands, func(cmd *Command) bool { return cmd.Name() == args[0] })
	if idx < 0 {
		fprintln(errOut, "error:", fmt.Errorf("%w: %s", ErrUnknownCommand, args[0]))
		c.PrintUsage(errOut)
		return 1
	}

	return c.commands[idx].Run(ctx, out, errOut, args[1:])
}

// PrintUsage lists the available commands.
func (c *Console) PrintUsage(w io.Writer) {
	fprintln(w, "Usage: hbnb [flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")
	for _, cmd := range c.commands {
		fprintln(w, cmd.HelpLine())
	}
}

func (c *Console) all(ctx context.Context, out io.Writer, args []string) error {
	class := ""
	if len(args) > 0 {
		class = args[0]
		if !c.registry.Has(class) {
			return &models.UnknownClassError{Class: class}
		}
	}

	all, err := c.engine.All(ctx, class)
	if err != nil {
		return err
	}

	entities := make([]models.Entity, 0, len(all))
	for _, e := range all {
		entities = append(entities, e)
	}
	storage.SortByKey(entities)

	for _, e := range entities {
		if printErr := printEntity(out, e); printErr != nil {
			return printErr
		}
	}

	return nil
}

func (c *Console) show(ctx context.Context, out io.Writer, args []string) error {
	entity, err := c.lookup(ctx, args)
	if err != nil {
		return err
	}

	return printEntity(out, entity)
}

func (c *Console) create(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		return ErrClassMissing
	}

	entity, err := models.NewEntity(c.registry, args[0])
	if err != nil {
		return err
	}

	if assignErr := models.Assign(entity, ParseParams(args[1:])); assignErr != nil {
		return assignErr
	}

	if saveErr := storage.SaveEntity(ctx, c.engine, entity); saveErr != nil {
		return saveErr
	}

	fprintln(out, entity.Base().ID)

	return nil
}

func (c *Console) update(ctx context.Context, _ io.Writer, args []string) error {
	entity, err := c.lookup(ctx, args)
	if err != nil {
		return err
	}

	if assignErr := models.Assign(entity, ParseParams(args[2:])); assignErr != nil {
		return assignErr
	}

	return storage.SaveEntity(ctx, c.engine, entity)
}

func (c *Console) destroy(ctx context.Context, _ io.Writer, args []string) error {
	entity, err := c.lookup(ctx, args)
	if err != nil {
		return err
	}

	if delErr := c.engine.Delete(ctx, entity); delErr != nil {
		return delErr
	}

	return c.engine.Save(ctx)
}

func (c *Console) count(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		return ErrClassMissing
	}
	if !c.registry.Has(args[0]) {
		return &models.UnknownClassError{Class: args[0]}
	}

	all, err := c.engine.All(ctx, args[0])
	if err != nil {
		return err
	}

	fprintln(out, len(all))

	return nil
}

func (c *Console) cities(ctx context.Context, out io.Writer, args []string) error {
	if len(args) == 0 {
		return ErrIDMissing
	}

	entity, err := c.lookup(ctx, []string{models.ClassState, args[0]})
	if err != nil {
		return err
	}

	state, ok := entity.(*models.State)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoInstance, models.KeyOf(models.ClassState, args[0]))
	}

	cities, err := storage.Cities(ctx, c.engine.Resolver(), state)
	if err != nil {
		return err
	}

	for _, city := range cities {
		fprintln(out, city.ID+": "+city.Name)
	}

	return nil
}

func (c *Console) lookup(ctx context.Context, args []string) (models.Entity, error) {
	if len(args) == 0 {
		return nil, ErrClassMissing
	}
	if !c.registry.Has(args[0]) {
		return nil, &models.UnknownClassError{Class: args[0]}
	}
	if len(args) < 2 {
		return nil, ErrIDMissing
	}

	all, err := c.engine.All(ctx, args[0])
	if err != nil {
		return nil, err
	}

	entity, ok := all[models.KeyOf(args[0], args[1])]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoInstance, models.KeyOf(args[0], args[1]))
	}

	return entity, nil
}

func printEntity(out io.Writer, e models.Entity) error {
	data, err := json.Marshal(models.ToMap(e))
	if err != nil {
		return fmt.Errorf("failed to format %s: %w", models.Key(e), err)
	}

	_, err = fmt.Fprintf(out, "[%s] (%s) %s\n", e.Class(), e.Base().ID, data)
	return err //nolint:wrapcheck // writer error
}
