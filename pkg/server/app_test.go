package server

import (
	"context"
	"errors"
	"testing"

	xhttp "FinCast/pkg/http"
	applogger "FinCast/pkg/logger"
)

type recordingComponent struct {
	name  string
	order *[]string
	err   error
}

func (r *recordingComponent) Start() error {
	*r.order = append(*r.order, "start "+r.name)
	return nil
}

func (r *recordingComponent) Stop(context.Context) error {
	*r.order = append(*r.order, "stop "+r.name)
	return r.err
}

func TestShutdownOrder(t *testing.T) {
	var order []string
	srv := xhttp.NewServer(applogger.Nop(), nil, xhttp.WithPort(0))
	sched := &recordingComponent{name: "scheduler", order: &order}
	cons := &recordingComponent{name: "consumer", order: &order, err: errors.New("stuck")}
	app := New(applogger.Nop(), srv, sched, cons, Closer{Name: "history", Close: func() error {
		order = append(order, "close history")
		return nil
	}})

	err := app.Shutdown(context.Background())
	if err == nil {
		t.Fatalf("expected consumer error to surface")
	}
	want := []string{"stop consumer", "stop scheduler", "close history"}
	if len(order) != len(want) {
		t.Fatalf("order = %v", order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestNilConsumer(t *testing.T) {
	var order []string
	srv := xhttp.NewServer(applogger.Nop(), nil, xhttp.WithPort(0))
	app := New(applogger.Nop(), srv, &recordingComponent{name: "scheduler", order: &order}, nil)
	if err := app.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
}
