package errors

// Convenience constructors for common error patterns.

// Config errors

func ConfigNotFound(path string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigRequired(field string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "required configuration missing").
		WithContext("field", field)
}

func CredentialMissing(target, ref string) *PipelineError {
	return New(CategoryConfig, SeverityFatal, "publish credential not resolvable").
		WithContext("target", target).
		WithContext("credential_ref", ref)
}

func ToolMissing(tool string, cause error) *PipelineError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "required tool not found").
		WithContext("tool", tool)
}

// Discovery errors

func SolutionUnreadable(solution string, cause error) *PipelineError {
	return Wrap(cause, CategoryDiscovery, SeverityFatal, "solution could not be read").
		WithContext("solution", solution)
}

func ProjectUnreadable(project string, cause error) *PipelineError {
	return Wrap(cause, CategoryDiscovery, SeverityFatal, "project could not be opened").
		WithContext("project", project)
}

func NoTargetFramework(project string) *PipelineError {
	return New(CategoryDiscovery, SeverityFatal, "no target framework property resolvable").
		WithContext("project", project)
}

// Stage errors

func StageFailed(stage string, exitCode int, cause error) *PipelineError {
	return Wrap(cause, CategoryStage, SeverityError, "stage tool returned a disallowed exit code").
		WithContext("stage", stage).
		WithContext("exit_code", exitCode)
}

// Fan-out errors

func PushRejected(target string, cause error) *PipelineError {
	return Wrap(cause, CategoryFanOut, SeverityError, "publish destination rejected push").
		WithContext("target", target)
}

func PushRejectedRetryable(target string, cause error) *PipelineError {
	return WrapRetryable(cause, CategoryFanOut, SeverityError, "publish destination temporarily unavailable").
		WithContext("target", target)
}

func CopyFailed(target string, cause error) *PipelineError {
	return Wrap(cause, CategoryFanOut, SeverityError, "artifact copy failed").
		WithContext("target", target)
}

// Git errors

func GitHeadError(repo string, cause error) *PipelineError {
	return Wrap(cause, CategoryGit, SeverityFatal, "could not resolve repository HEAD").
		WithContext("repository", repo)
}
