package reference

import (
	"database/sql/driver"
	"fmt"
)

// Region is a continental region, stored as the region enum.
type Region string

const (
	RegionAfrica       Region = "AF"
	RegionAntarctica   Region = "AN"
	RegionAsia         Region = "AS"
	RegionEurope       Region = "EU"
	RegionNorthAmerica Region = "NA"
	RegionOceania      Region = "OC"
	RegionSouthAmerica Region = "SA"
)

// regionCodes lists the region enum labels in declaration order.
var regionCodes = []string{"AF", "AN", "AS", "EU", "NA", "OC", "SA"}

var regions = map[Region]bool{
	RegionAfrica: true, RegionAntarctica: true, RegionAsia: true, RegionEurope: true,
	RegionNorthAmerica: true, RegionOceania: true, RegionSouthAmerica: true,
}

func (r Region) IsValid() bool {
	return regions[r]
}

// Scan implements sql.Scanner.
func (r *Region) Scan(src any) error {
	var v string
	switch t := src.(type) {
	case string:
		v = t
	case []byte:
		v = string(t)
	default:
		return fmt.Errorf("scan region: unsupported type %T", src)
	}
	if !Region(v).IsValid() {
		return fmt.Errorf("scan region: unknown value %q", v)
	}
	*r = Region(v)
	return nil
}

// Value implements driver.Valuer.
func (r Region) Value() (driver.Value, error) {
	if !r.IsValid() {
		return nil, fmt.Errorf("invalid region %q", r)
	}
	return string(r), nil
}
