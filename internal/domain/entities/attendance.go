package entities

// AttendanceRecord holds the participants marked present on one calendar
// date. Date is the canonical YYYY-MM-DD key (at most one record per date)
// and Participants is kept sorted and deduplicated before every write.
//
// Participants reference roster names by value: removing a name from the
// roster never rewrites historical records.
type AttendanceRecord struct {
	Date         string
	Participants []string
}
