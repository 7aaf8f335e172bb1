package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := New(CategoryConfig, SeverityFatal, "missing key")
	want := "config (fatal): missing key"
	if e.Error() != want {
		t.Fatalf("expected %q, got %q", want, e.Error())
	}

	wrapped := Wrap(stderrors.New("boom"), CategoryStage, SeverityError, "build failed")
	if got := wrapped.Error(); got != "stage (error): build failed: boom" {
		t.Fatalf("unexpected wrapped rendering: %q", got)
	}
}

func TestUnwrapChain(t *testing.T) {
	root := stderrors.New("root cause")
	e := Wrap(root, CategoryFanOut, SeverityError, "push failed")
	if !stderrors.Is(e, root) {
		t.Fatal("errors.Is should find the root cause through Unwrap")
	}

	// A PipelineError wrapped again in fmt.Errorf must still classify.
	outer := fmt.Errorf("run aborted: %w", e)
	if !IsCategory(outer, CategoryFanOut) {
		t.Fatal("IsCategory should resolve through wrapping")
	}
	if GetCategory(outer) != CategoryFanOut {
		t.Fatal("GetCategory should resolve through wrapping")
	}
}

func TestRetryable(t *testing.T) {
	e := WrapRetryable(stderrors.New("503"), CategoryFanOut, SeverityError, "registry busy")
	if !IsRetryable(e) {
		t.Fatal("expected retryable")
	}
	if IsRetryable(New(CategoryStage, SeverityError, "nope")) {
		t.Fatal("plain error should not be retryable")
	}
	if IsRetryable(stderrors.New("untyped")) {
		t.Fatal("untyped error should not be retryable")
	}
}

func TestContextFields(t *testing.T) {
	e := StageFailed("build", 1, stderrors.New("msbuild error")).
		WithContext("project", "Core.csproj")
	if e.Context["stage"] != "build" {
		t.Fatalf("expected stage context, got %v", e.Context)
	}
	if e.Context["exit_code"] != 1 {
		t.Fatalf("expected exit_code context, got %v", e.Context)
	}
	if e.Context["project"] != "Core.csproj" {
		t.Fatalf("expected project context, got %v", e.Context)
	}
}

func TestUntypedCategoryDefaultsToInternal(t *testing.T) {
	if GetCategory(stderrors.New("anything")) != CategoryInternal {
		t.Fatal("untyped errors classify as internal")
	}
}
