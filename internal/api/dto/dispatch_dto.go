package dto

// DispatchRequest is the body accepted by every dispatch endpoint. Title
// names a stored message template; Data carries the values rendered into it.
type DispatchRequest struct {
	To    string         `json:"to" binding:"required"`
	Title string         `json:"title" binding:"required"`
	Data  map[string]any `json:"data"`
}

// DispatchResponse acknowledges an accepted job
type DispatchResponse struct {
	JobID      string `json:"job_id"`
	Queue      string `json:"queue"`
	EnqueuedAt string `json:"enqueued_at"`
}
