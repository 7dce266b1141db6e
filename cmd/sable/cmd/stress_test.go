package cmd

import (
	"path/filepath"
	"testing"

	"github.com/nextcore/sable/pkg/errors"
)

func TestRunStressReportsConfigFailure(t *testing.T) {
	h := &captureHandler{}
	errors.SetHandler(h)
	defer errors.SetHandler(nil)

	err := runStress([]string{"-c", filepath.Join(t.TempDir(), "missing.yaml")})
	if err == nil {
		t.Fatal("expected an error for a missing scenario file")
	}
	if len(h.errs) != 1 {
		t.Fatalf("reported errors = %d, want 1", len(h.errs))
	}
	if got := h.errs[0].Kind; got != errors.KindConfig {
		t.Errorf("Kind = %v, want KindConfig", got)
	}
	if got := h.errs[0].Op; got != "scenario.Load" {
		t.Errorf("Op = %q, want scenario.Load", got)
	}
}

func TestRunStressRejectsUnknownFlag(t *testing.T) {
	if err := runStress([]string{"--frobnicate"}); err == nil {
		t.Error("expected an error for an unknown flag")
	}
}
