package errors

// Convenience constructors for the error taxonomy. All setup-time conditions
// are fatal; render errors stay recoverable so the caller can decide between
// fail-fast and inline diagnostics.

// Setup errors

func ConfigError(message string) *DocMacroError {
	return New(CategoryConfig, SeverityFatal, message)
}

func ConfigValueError(option string, value any, reason string) *DocMacroError {
	return New(CategoryConfig, SeverityFatal, "illegal configuration value").
		WithContext("option", option).
		WithContext("value", value).
		WithContext("reason", reason)
}

func ResourceError(kind, path string) *DocMacroError {
	return New(CategoryResource, SeverityFatal, kind+" not found").
		WithContext("path", path)
}

// Extension loading errors

func ModuleLoadError(module string, cause error) *DocMacroError {
	return Wrap(cause, CategoryModuleLoad, SeverityFatal, "could not load extension module").
		WithContext("module", module)
}

func RegistrationError(module string) *DocMacroError {
	return New(CategoryRegistration, SeverityFatal, "no registration entry point in module").
		WithContext("module", module)
}

// AccessTooEarly marks a read that happened before the owning phase completed.
// It points at extension code running outside its lifecycle slot.
func AccessTooEarly(what string) *DocMacroError {
	return New(CategoryAccessTooEarly, SeverityFatal, what+" accessed before initialization completed")
}

// Render and hook errors

func RenderError(page string, cause error) *DocMacroError {
	return Wrap(cause, CategoryRender, SeverityError, "macro rendering failed").
		WithContext("page", page)
}

func HookError(phase, module string, cause error) *DocMacroError {
	return Wrap(cause, CategoryHook, SeverityFatal, "lifecycle hook failed").
		WithContext("phase", phase).
		WithContext("module", module)
}

// Runtime errors

func FileSystemError(operation string, cause error) *DocMacroError {
	return Wrap(cause, CategoryFileSystem, SeverityFatal, "filesystem operation failed").
		WithContext("operation", operation)
}

func InternalError(message string, cause error) *DocMacroError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
