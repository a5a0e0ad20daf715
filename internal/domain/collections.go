package domain

// Store collection names.
const (
	CollectionPlayers    = "players"
	CollectionAttendance = "attendance"
)
