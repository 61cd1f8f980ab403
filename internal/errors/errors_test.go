package errors

import (
	stdErrors "errors"
	"fmt"
	"testing"
)

func TestDocMacroError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *DocMacroError
		expected string
	}{
		{
			name:     "error without cause",
			err:      New(CategoryConfig, SeverityFatal, "configuration invalid"),
			expected: "config (fatal): configuration invalid",
		},
		{
			name:     "error with cause",
			err:      Wrap(fmt.Errorf("file not found"), CategoryConfig, SeverityFatal, "failed to load config"),
			expected: "config (fatal): failed to load config: file not found",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := test.err.Error()
			if result != test.expected {
				t.Errorf("Error() = %q, want %q", result, test.expected)
			}
		})
	}
}

func TestDocMacroError_WithContext(t *testing.T) {
	err := New(CategoryModuleLoad, SeverityFatal, "import failed").
		WithContext("module", "mymod").
		WithContext("source", "registry.example.com/pkg")

	if err.Context == nil {
		t.Fatal("Context should not be nil")
	}

	if err.Context["module"] != "mymod" {
		t.Errorf("Context[module] = %v, want mymod", err.Context["module"])
	}

	if err.Context["source"] != "registry.example.com/pkg" {
		t.Errorf("Context[source] = %v, want registry.example.com/pkg", err.Context["source"])
	}
}

func TestIsCategory(t *testing.T) {
	configErr := New(CategoryConfig, SeverityFatal, "config error")
	renderErr := New(CategoryRender, SeverityError, "render error")
	standardErr := fmt.Errorf("standard error")
	wrappedRender := fmt.Errorf("page failed: %w", renderErr)

	tests := []struct {
		name     string
		err      error
		category ErrorCategory
		expected bool
	}{
		{"config error matches config category", configErr, CategoryConfig, true},
		{"config error doesn't match render category", configErr, CategoryRender, false},
		{"render error matches render category", renderErr, CategoryRender, true},
		{"wrapped render error still matches", wrappedRender, CategoryRender, true},
		{"standard error doesn't match any category", standardErr, CategoryConfig, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsCategory(test.err, test.category)
			if result != test.expected {
				t.Errorf("IsCategory() = %v, want %v", result, test.expected)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, ExitOK},
		{"config error", ConfigError("bad option"), ExitSetup},
		{"resource error", ResourceError("include directory", "/nope"), ExitSetup},
		{"module load error", ModuleLoadError("mymod", fmt.Errorf("not in catalog")), ExitSetup},
		{"registration error", RegistrationError("mymod"), ExitSetup},
		{"render error", RenderError("index.md", fmt.Errorf("undefined variable")), ExitMacroError},
		{"hook error", HookError("post_build", "mymod", fmt.Errorf("boom")), ExitInternal},
		{"plain error", fmt.Errorf("something"), ExitInternal},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(test.err); got != test.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, test.expected)
			}
		})
	}
}

func TestConvenienceFunctions(t *testing.T) {
	t.Run("ConfigValueError", func(t *testing.T) {
		err := ConfigValueError("on_undefined", "sloppy", "not one of keep, silent, strict, lax")
		if err.Category != CategoryConfig {
			t.Errorf("Category = %v, want %v", err.Category, CategoryConfig)
		}
		if err.Severity != SeverityFatal {
			t.Errorf("Severity = %v, want %v", err.Severity, SeverityFatal)
		}
		if err.Context["option"] != "on_undefined" {
			t.Errorf("Context[option] = %v, want on_undefined", err.Context["option"])
		}
	})

	t.Run("ModuleLoadError", func(t *testing.T) {
		cause := fmt.Errorf("not found")
		err := ModuleLoadError("mymod", cause)
		if err.Category != CategoryModuleLoad {
			t.Errorf("Category = %v, want %v", err.Category, CategoryModuleLoad)
		}
		if !stdErrors.Is(err, cause) {
			t.Errorf("Cause should match wrapped cause: %v", cause)
		}
		if err.Context["module"] != "mymod" {
			t.Errorf("Context[module] = %v, want mymod", err.Context["module"])
		}
	})

	t.Run("AccessTooEarly", func(t *testing.T) {
		err := AccessTooEarly("variable store")
		if err.Category != CategoryAccessTooEarly {
			t.Errorf("Category = %v, want %v", err.Category, CategoryAccessTooEarly)
		}
		if !IsCategory(err, CategoryAccessTooEarly) {
			t.Error("IsCategory should recognize AccessTooEarly")
		}
	})

	t.Run("RenderError", func(t *testing.T) {
		err := RenderError("docs/index.md", fmt.Errorf("undefined"))
		if err.Severity != SeverityError {
			t.Errorf("RenderError must stay recoverable, got severity %v", err.Severity)
		}
		if err.Context["page"] != "docs/index.md" {
			t.Errorf("Context[page] = %v, want docs/index.md", err.Context["page"])
		}
	})
}
