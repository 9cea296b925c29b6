package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatusWithoutChecks(t *testing.T) {
	report := NewService().Status(context.Background())
	if !report.OK || report.Checks != nil {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestStatusReportsFailingDependency(t *testing.T) {
	svc := NewService()
	svc.Register("database", func(context.Context) error { return nil })
	svc.Register("cache", func(context.Context) error { return errors.New("connection refused") })

	report := svc.Status(context.Background())
	if report.OK {
		t.Fatalf("expected failing report")
	}
	if report.Checks["database"] != "ok" || report.Checks["cache"] != "connection refused" {
		t.Fatalf("unexpected checks %+v", report.Checks)
	}
}
