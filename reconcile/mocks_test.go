package reconcile

import (
	"context"

	"fwsync/rules"
)

type updateCall struct {
	project string
	name    string
	body    *rules.Update
}

type insertCall struct {
	project string
	body    *rules.Definition
}

type mockService struct {
	rules     []Rule
	listErr   error
	insertErr error
	updateErr error

	calls   []string
	inserts []insertCall
	updates []updateCall
}

func (m *mockService) List(ctx context.Context, project string) ([]Rule, error) {
	m.calls = append(m.calls, "list")
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.rules, nil
}

func (m *mockService) Insert(ctx context.Context, project string, def *rules.Definition) error {
	m.calls = append(m.calls, "insert")
	m.inserts = append(m.inserts, insertCall{project: project, body: def})
	return m.insertErr
}

func (m *mockService) Update(ctx context.Context, project string, name string, upd *rules.Update) error {
	m.calls = append(m.calls, "update")
	m.updates = append(m.updates, updateCall{project: project, name: name, body: upd})
	return m.updateErr
}
