package model

import (
	"time"

	"github.com/google/uuid"
)

//go:generate go run github.com/dmarkham/enumer -type ReviewStatus -trimprefix ReviewStatus -transform lower -json -sql -output reviewstatus_enumer.go

// ReviewStatus is the lifecycle state of a review. A review starts as
// Requested and is decided exactly once; Approved and Declined are terminal.
type ReviewStatus int

const (
	ReviewStatusRequested ReviewStatus = iota
	ReviewStatusApproved
	ReviewStatusDeclined
)

// Review is the approval request for a model. There is at most one review per
// model (unique index on model_id); a decided review is never deleted and
// serves as the audit record of who approved what.
type Review struct {
	ID          uuid.UUID    `gorm:"column:id;type:uuid;primaryKey"`
	ModelID     uuid.UUID    `gorm:"column:model_id;type:uuid;uniqueIndex;not null"`
	RequestedBy string       `gorm:"column:requested_by;not null"`
	ReviewedBy  string       `gorm:"column:reviewed_by"`
	Status      ReviewStatus `gorm:"column:status;not null"`
	Note        string       `gorm:"column:note"`
	CreatedAt   time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (Review) TableName() string {
	return "reviews"
}

// Decided reports whether the review has reached a terminal state.
func (r *Review) Decided() bool {
	return r.Status != ReviewStatusRequested
}
