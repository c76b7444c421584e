package repositories

import "time"

// Clock supplies the simulated date. It advances once per timestep and is
// owned by the host simulation.
type Clock interface {
	Today() time.Time
	StartDate() time.Time
	EndDate() time.Time
}
