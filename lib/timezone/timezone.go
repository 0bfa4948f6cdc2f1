package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		panic(err)
	}
}

// force timestamps into the platform's timezone, the machine running
// the scrape is not necessarily in Brazil
func Now() time.Time {
	return time.Now().In(Location)
}
