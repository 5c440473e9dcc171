package cli

import (
	"fmt"

	"github.com/aryankumar/multikube/internal/contexts"
	"github.com/aryankumar/multikube/internal/util"
)

// activeContext picks the context for this run: --context, then the stored
// default, then the only stored context, then an interactive choice
func (a *app) activeContext() (string, error) {
	if a.opts.context != "" {
		return a.opts.context, nil
	}
	if name := a.contexts.Default(); name != "" {
		return name, nil
	}

	names := a.contexts.ListNames()
	switch len(names) {
	case 0:
		return "", util.ErrNoContext
	case 1:
		a.logger.Debug("no default context, using the only stored context", "context", names[0])
		return names[0], nil
	}

	idx, err := a.prompter.Select("No default context set. Select a context for this run:", a.contextChoices())
	if err != nil {
		return "", fmt.Errorf("%w: %v", util.ErrNoContext, err)
	}
	return names[idx], nil
}

// contextChoices renders stored contexts as "name (pattern)" in ListNames order
func (a *app) contextChoices() []string {
	entries := a.contexts.Entries()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = fmt.Sprintf("%s (%s)", e.Name, e.Pattern)
	}
	return out
}

// selectDefaultContext asks which stored context becomes the default
func (a *app) selectDefaultContext() error {
	names := a.contexts.ListNames()
	if len(names) == 0 {
		return util.ErrNoContext
	}

	idx, err := a.prompter.Select("Select the default context:", a.contextChoices())
	if err != nil {
		return err
	}
	return a.setDefaultContext(names[idx])
}

func (a *app) storeContext(pattern, name string) error {
	if _, err := contexts.Match(pattern, nil); err != nil {
		return err
	}

	if name == "" {
		existing := make(map[string]bool)
		for _, n := range a.contexts.ListNames() {
			existing[n] = true
		}
		for name == "" {
			answer, err := a.prompter.Input("Enter a unique name for this context")
			if err != nil {
				return fmt.Errorf("context name required: %w", err)
			}
			if existing[answer] {
				fmt.Fprintf(a.env.Stderr, "context %q already exists, choose a different name\n", answer)
				continue
			}
			name = answer
		}
	}

	if err := a.contexts.Save(name, pattern); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Context %q stored with pattern %q\n", name, pattern)

	// Preview against whatever is cached; never trigger discovery here.
	if snap, _ := a.cache.Load(); snap != nil {
		matched, err := contexts.Match(pattern, snap.Names())
		if err == nil {
			fmt.Fprintf(a.env.Stdout, "Matches %d of %d cached clusters\n", len(matched), snap.Len())
		}
	}
	return nil
}

func (a *app) setDefaultContext(name string) error {
	if err := a.contexts.SetDefault(name); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Default context set to %q\n", name)
	return nil
}

func (a *app) deleteContext(name string) error {
	if err := a.contexts.Delete(name); err != nil {
		return err
	}
	fmt.Fprintf(a.env.Stdout, "Context %q deleted\n", name)
	return nil
}

func (a *app) listContexts() error {
	entries := a.contexts.Entries()
	if len(entries) == 0 && a.cfg.Format == "text" {
		fmt.Fprintln(a.env.Stderr, "No contexts stored. Add one with --store-context PATTERN --name NAME.")
		return nil
	}
	return a.formatter.Format(a.env.Stdout, entries)
}
