package model

// CutoffRecord is one historical admission cutoff row. Reference data
// maintained outside this service; never mutated here.
type CutoffRecord struct {
	ID            int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	Institute     string `gorm:"type:varchar(256);index;not null" json:"institute"`
	InstituteType string `gorm:"type:varchar(32);index;not null" json:"institute_type"`
	Program       string `gorm:"type:varchar(256);not null" json:"program"`
	SeatType      string `gorm:"type:varchar(32);index;not null" json:"seat_type"`
	Gender        string `gorm:"type:varchar(32);not null" json:"gender"`
	AcademicYear  int    `gorm:"index;not null" json:"academic_year"`
	OpeningRank   int64  `gorm:"not null" json:"opening_rank"`
	ClosingRank   int64  `gorm:"not null" json:"closing_rank"`
}

func (CutoffRecord) TableName() string {
	return "cutoff_records"
}

// CutoffFilter is the query shape the predictor hands to the cutoff
// repository. Zero-valued optional fields mean "no filter".
type CutoffFilter struct {
	AcademicYear    int
	MaxClosingRank  int64 // closing_rank <= MaxClosingRank
	MinOpeningRank  int64 // opening_rank >= MinOpeningRank
	SeatType        string
	Gender          string
	ExcludeReserved bool // drop reserved-institute rows (JEE-Main)
	Limit           int
}
