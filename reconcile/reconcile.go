// Package reconcile keeps a named firewall deny rule in step with a CIDR
// source file. A run checks for the rule once and then issues a single
// create or update call.
package reconcile

import (
	"context"
	"fmt"
	"io"

	"emperror.dev/errors"
	"github.com/apex/log"
	"gopkg.in/yaml.v2"

	"fwsync/rules"
)

// ErrRuleNotFound is returned by Find when the project has no rule of that name.
const ErrRuleNotFound = errors.Sentinel("firewall rule not found")

// Rule is the read side of a remote firewall rule.
type Rule struct {
	Name         string
	Direction    string
	Priority     int64
	Description  string
	Denied       []rules.Denied
	SourceRanges []string
}

// Service is the subset of a firewall resource API the reconciler relies on.
type Service interface {
	List(ctx context.Context, project string) ([]Rule, error)
	Insert(ctx context.Context, project string, def *rules.Definition) error
	Update(ctx context.Context, project string, name string, upd *rules.Update) error
}

// Action is what a run did to the remote rule.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// Result summarizes a successful run.
type Result struct {
	Action Action
	Name   string
	Ranges int
	DryRun bool
}

func (r *Result) String() string {
	verb := string(r.Action)
	if r.DryRun {
		verb = "would be " + verb
	}
	return fmt.Sprintf("Firewall %q %s with %d source range(s)", r.Name, verb, r.Ranges)
}

// Loader returns the source ranges to apply.
type Loader func(path string) ([]string, error)

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithDryRun renders the payload to w instead of sending it.
func WithDryRun(w io.Writer) Option {
	return func(r *Reconciler) {
		r.dryRun = w
	}
}

// WithLoader replaces rules.LoadSourceRanges.
func WithLoader(l Loader) Option {
	return func(r *Reconciler) {
		r.load = l
	}
}

// Reconciler applies a source range file to one firewall rule.
type Reconciler struct {
	svc     Service
	builder *rules.Builder
	load    Loader
	dryRun  io.Writer
}

// New returns a Reconciler using svc for every remote call.
func New(svc Service, builder *rules.Builder, opts ...Option) *Reconciler {
	r := &Reconciler{
		svc:     svc,
		builder: builder,
		load:    rules.LoadSourceRanges,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Sync makes rule name in project deny exactly the ranges listed in path.
func (r *Reconciler) Sync(ctx context.Context, project, path, name string) (*Result, error) {
	logger := log.WithFields(log.Fields{
		"project":  project,
		"firewall": name,
		"source":   path,
	})

	exists, err := r.exists(ctx, project, name)
	if err != nil {
		return nil, err
	}

	ranges, err := r.load(path)
	if err != nil {
		return nil, err
	}
	logger.WithField("ranges", len(ranges)).Debug("loaded source ranges")

	if !exists {
		def, err := r.builder.Definition(name, ranges)
		if err != nil {
			return nil, err
		}
		res := &Result{Action: ActionCreated, Name: name, Ranges: len(def.SourceRanges)}
		if r.dryRun != nil {
			res.DryRun = true
			return res, r.render(def)
		}
		logger.WithField("priority", def.Priority).Info("creating firewall rule")
		if err := r.svc.Insert(ctx, project, def); err != nil {
			return nil, errors.Wrapf(err, "failed to create firewall rule %q", name)
		}
		return res, nil
	}

	upd, err := r.builder.Update(name, ranges)
	if err != nil {
		return nil, err
	}
	res := &Result{Action: ActionUpdated, Name: name, Ranges: len(upd.SourceRanges)}
	if r.dryRun != nil {
		res.DryRun = true
		return res, r.render(upd)
	}
	logger.Info("updating firewall rule source ranges")
	if err := r.svc.Update(ctx, project, name, upd); err != nil {
		return nil, errors.Wrapf(err, "failed to update firewall rule %q", name)
	}
	return res, nil
}

// Find returns the rule called name, or ErrRuleNotFound.
func (r *Reconciler) Find(ctx context.Context, project, name string) (*Rule, error) {
	list, err := r.svc.List(ctx, project)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list firewall rules")
	}
	for i := range list {
		if list[i].Name == name {
			return &list[i], nil
		}
	}
	return nil, errors.Wrapf(ErrRuleNotFound, "firewall %q in project %s", name, project)
}

// exists matches names exactly; "fw1" and "FW1" are different rules.
func (r *Reconciler) exists(ctx context.Context, project, name string) (bool, error) {
	_, err := r.Find(ctx, project, name)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, ErrRuleNotFound) {
		return false, nil
	}
	return false, err
}

func (r *Reconciler) render(payload interface{}) error {
	out, err := yaml.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "failed to render payload")
	}
	_, err = r.dryRun.Write(out)
	return err
}
