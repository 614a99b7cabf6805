// Package store holds the result types shared by the repository implementations.
package store

// WriteResult describes the outcome of an insert, update or delete.
type WriteResult struct {
	Success      bool  `json:"success"`
	Changes      int64 `json:"changes"`
	LastInsertID int64 `json:"lastInsertId,omitempty"`
}

func Changed(n int64) WriteResult {
	return WriteResult{Success: true, Changes: n}
}

func Inserted(id int64) WriteResult {
	return WriteResult{Success: true, Changes: 1, LastInsertID: id}
}

// NotFound reports whether the write matched zero rows.
func (r WriteResult) NotFound() bool {
	return r.Changes == 0
}
