// Package gce implements the firewall service on top of the Compute Engine API.
package gce

import (
	"context"
	"strings"

	"emperror.dev/errors"
	"github.com/apex/log"
	compute "google.golang.org/api/compute/v1"
	"google.golang.org/api/option"

	"fwsync/reconcile"
	"fwsync/rules"
)

const statusDone = "DONE"

// Client is a reconcile.Service backed by the Compute Engine firewalls API.
type Client struct {
	firewalls  *compute.FirewallsService
	operations *compute.GlobalOperationsService

	// Wait blocks Insert and Update until the global operation finishes.
	Wait bool
}

var _ reconcile.Service = (*Client)(nil)

// New creates a Compute Engine client. Credentials are resolved by the
// client library unless opts supply them.
func New(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := compute.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create compute client")
	}
	return &Client{
		firewalls:  svc.Firewalls,
		operations: svc.GlobalOperations,
	}, nil
}

// List returns every firewall rule in project, following page tokens.
func (c *Client) List(ctx context.Context, project string) ([]reconcile.Rule, error) {
	var out []reconcile.Rule
	err := c.firewalls.List(project).Pages(ctx, func(page *compute.FirewallList) error {
		for _, fw := range page.Items {
			if fw != nil {
				out = append(out, toRule(fw))
			}
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing firewalls in project %s", project)
	}
	return out, nil
}

// Insert creates a new firewall rule from def.
func (c *Client) Insert(ctx context.Context, project string, def *rules.Definition) error {
	op, err := c.firewalls.Insert(project, fromDefinition(def)).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "inserting firewall %s", def.Name)
	}
	return c.wait(ctx, project, op)
}

// Update replaces the source ranges of the rule called name. It patches the
// rule so that attributes absent from upd keep their current values.
func (c *Client) Update(ctx context.Context, project string, name string, upd *rules.Update) error {
	body := &compute.Firewall{
		Name:         upd.Name,
		SourceRanges: upd.SourceRanges,
	}
	op, err := c.firewalls.Patch(project, name, body).Context(ctx).Do()
	if err != nil {
		return errors.Wrapf(err, "updating firewall %s", name)
	}
	return c.wait(ctx, project, op)
}

func (c *Client) wait(ctx context.Context, project string, op *compute.Operation) error {
	if !c.Wait || op == nil {
		return nil
	}
	logger := log.WithFields(log.Fields{"project": project, "operation": op.Name})
	for op.Status != statusDone {
		logger.WithField("status", op.Status).Debug("waiting for operation")
		next, err := c.operations.Wait(project, op.Name).Context(ctx).Do()
		if err != nil {
			return errors.Wrapf(err, "waiting for operation %s", op.Name)
		}
		op = next
	}
	return operationError(op)
}

func operationError(op *compute.Operation) error {
	if op.Error == nil || len(op.Error.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(op.Error.Errors))
	for _, e := range op.Error.Errors {
		msgs = append(msgs, e.Code+": "+e.Message)
	}
	return errors.Errorf("operation %s failed: %s", op.Name, strings.Join(msgs, "; "))
}

func fromDefinition(def *rules.Definition) *compute.Firewall {
	denied := make([]*compute.FirewallDenied, 0, len(def.Denied))
	for _, d := range def.Denied {
		denied = append(denied, &compute.FirewallDenied{IPProtocol: d.IPProtocol, Ports: d.Ports})
	}
	return &compute.Firewall{
		Name:         def.Name,
		Direction:    def.Direction,
		Priority:     def.Priority,
		Description:  def.Description,
		Denied:       denied,
		SourceRanges: def.SourceRanges,

		// Priority 0 is the highest priority, not "unset".
		ForceSendFields: []string{"Priority"},
	}
}

func toRule(fw *compute.Firewall) reconcile.Rule {
	denied := make([]rules.Denied, 0, len(fw.Denied))
	for _, d := range fw.Denied {
		if d != nil {
			denied = append(denied, rules.Denied{IPProtocol: d.IPProtocol, Ports: d.Ports})
		}
	}
	return reconcile.Rule{
		Name:         fw.Name,
		Direction:    fw.Direction,
		Priority:     fw.Priority,
		Description:  fw.Description,
		Denied:       denied,
		SourceRanges: fw.SourceRanges,
	}
}
