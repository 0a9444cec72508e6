package crew

// ShipTasks is the catalogue of mini-game task ids a crewmate can
// report. The mini-games themselves live in the browser shell; the
// coordinator only validates ids against this list.
var ShipTasks = []string{
	"fix-wiring", "calibrate-distributor", "divert-power",
	"chart-course", "stabilize-steering",
	"align-engine", "fuel-engines",
	"submit-scan", "prime-shields",
	"clean-o2-filter", "empty-garbage", "swipe-card",
}

// KnownTask reports whether id names a ship task.
func KnownTask(id string) bool {
	for _, t := range ShipTasks {
		if t == id {
			return true
		}
	}
	return false
}
