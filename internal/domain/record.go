package domain

// Principal identifies a caller. The registry owner is the single principal
// authorized to perform mutating operations.
type Principal string

// Bounded string lengths, in bytes. Arguments beyond these fail with
// ErrValueTooLong.
const (
	MaxIDLen     = 64
	MaxNameLen   = 128
	MaxDetailLen = 256
)

// InfraStatus represents the verification lifecycle state of an
// infrastructure record
type InfraStatus string

const (
	StatusPending     InfraStatus = "pending"
	StatusVerified    InfraStatus = "verified"
	StatusFailed      InfraStatus = "failed"      // reserved for external collaborators
	StatusMaintenance InfraStatus = "maintenance" // reserved for external collaborators
)

// InfrastructureRecord represents a registered infrastructure asset
type InfrastructureRecord struct {
	ID                 string      `json:"id"`
	Owner              Principal   `json:"owner"`
	InfrastructureType string      `json:"infrastructure_type"`
	Status             InfraStatus `json:"status"`
	// VerificationHeight is the logical clock value at registration, updated
	// when the record is verified.
	VerificationHeight uint64 `json:"verification_height"`
	QuantumCompatible  bool   `json:"quantum_compatible"`
	PerformanceScore   uint64 `json:"performance_score"`
}

// IsVerified returns true if the record has completed verification
func (r *InfrastructureRecord) IsVerified() bool {
	return r.Status == StatusVerified
}
