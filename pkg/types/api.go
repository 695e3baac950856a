package types

// GenerateRequest is the payload accepted by POST /generate.
type GenerateRequest struct {
	// Required prompt text sent to the model as a single user message.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt" example:"Write a haiku about the ocean."`
	// Optional model identifier. If empty, the registry default is used.
	// example: unsloth/Llama-3.2-1B-Instruct
	Model string `json:"model,omitempty" example:"unsloth/Llama-3.2-1B-Instruct"`
}

// GenerateResponse carries the model reply for a successful POST /generate.
type GenerateResponse struct {
	// Text of the first choice returned by the backend.
	// example: Waves fold into foam
	Response string `json:"response" example:"Waves fold into foam"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: inference backend unavailable
	Error string `json:"error" example:"inference backend unavailable"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
	// Machine readable classification of the failure
	// (validation, not_found, backend_unavailable, backend_error, invalid_response, storage, internal).
	// example: backend_unavailable
	Kind string `json:"kind,omitempty" example:"backend_unavailable"`
}

// OKResponse acknowledges a successful mutation.
type OKResponse struct {
	// example: true
	OK bool `json:"ok" example:"true"`
}

// SystemStats is returned by GET /system_stats.
type SystemStats struct {
	Global  GlobalStats  `json:"global"`
	Process ProcessStats `json:"process"`
}

// GlobalStats describes host-wide CPU and memory usage.
type GlobalStats struct {
	// CPU busy percentage since the previous sample. Zero on the first call.
	// example: 12.5
	CPUPercent float64 `json:"cpu_pct" example:"12.5"`
	// Percentage of physical memory in use.
	// example: 43.1
	RAMPercent float64 `json:"ram_pct" example:"43.1"`
	// example: 7301444608
	RAMUsedBytes uint64 `json:"ram_used_bytes" example:"7301444608"`
	// example: 16941129728
	RAMTotalBytes uint64 `json:"ram_total_bytes" example:"16941129728"`
	// Human readable "used/total GB".
	// example: 6.8/15.8 GB
	RAMGB string `json:"ram_gb" example:"6.8/15.8 GB"`
}

// ProcessStats describes CPU and memory used by this process.
type ProcessStats struct {
	// CPU percentage since the previous sample; may exceed 100 on multi-core hosts.
	// example: 0.7
	CPUPercent float64 `json:"cpu_pct" example:"0.7"`
	// Resident set size in bytes.
	// example: 25165824
	RAMUsedBytes uint64 `json:"ram_used_bytes" example:"25165824"`
	// example: 0.02 GB
	RAMGB string `json:"ram_gb" example:"0.02 GB"`
}
