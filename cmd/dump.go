package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/evcc-io/ownerportal/api"
	"github.com/evcc-io/ownerportal/core/sensor"
	"github.com/evcc-io/ownerportal/vehicle"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cast"
)

type dumper struct {
	out io.Writer
	len int
}

func (d *dumper) writer() io.Writer {
	if d.out == nil {
		return os.Stdout
	}
	return d.out
}

func (d *dumper) Header(name, underline string) {
	if d.len > 1 {
		fmt.Fprintln(d.writer(), name)
		fmt.Fprintln(d.writer(), strings.Repeat(underline, len(name)))
	}
}

func (d *dumper) Footer() {
	if d.len > 1 {
		fmt.Fprintln(d.writer())
	}
}

func (d *dumper) DumpWithHeader(name string, v *vehicle.Mitsubishi) {
	d.Header(name, "-")
	d.Dump(v)
	d.Footer()
}

// format renders a field value, numbers with their sensor unit
func format(key string, val interface{}) string {
	switch v := val.(type) {
	case nil:
		return "-"

	case time.Time:
		return fmt.Sprintf("%s (%s)", v.Local().Format("2006-01-02 15:04:05"), humanize.Time(v))

	case float64:
		s := humanize.Ftoa(v)
		if d, ok := sensor.Lookup(key); ok && d.Unit != "" {
			s += d.Unit
		}
		return s

	default:
		if s, err := cast.ToStringE(v); err == nil {
			return s
		}
		return fmt.Sprintf("%v", v)
	}
}

// dumpAPI prints the values of the vehicle's api interfaces
func dumpAPI(w io.Writer, v api.Vehicle) {
	if soc, err := v.Soc(); err != nil {
		fmt.Fprintf(w, "Soc:\t%v\n", err)
	} else {
		fmt.Fprintf(w, "Soc:\t%.0f%%\n", soc)
	}

	if v, ok := v.(api.VehicleRange); ok {
		if rng, err := v.Range(); err != nil {
			fmt.Fprintf(w, "Range:\t%v\n", err)
		} else {
			fmt.Fprintf(w, "Range:\t%vkm\n", rng)
		}
	}

	if v, ok := v.(api.VehicleOdometer); ok {
		if odo, err := v.Odometer(); err != nil {
			fmt.Fprintf(w, "Odometer:\t%v\n", err)
		} else {
			fmt.Fprintf(w, "Odometer:\t%.0fkm\n", odo)
		}
	}

	if v, ok := v.(api.VehiclePosition); ok {
		if lat, lon, err := v.Position(); err != nil {
			fmt.Fprintf(w, "Position:\t%v\n", err)
		} else {
			fmt.Fprintf(w, "Position:\t%v,%v\n", lat, lon)
		}
	}

	if v, ok := v.(api.VehicleFinishTimer); ok {
		if ft, err := v.FinishTime(); err != nil {
			fmt.Fprintf(w, "Finish time:\t%v\n", err)
		} else {
			fmt.Fprintf(w, "Finish time:\t%s\n", ft.Truncate(time.Minute).Local().Format("15:04"))
		}
	}
}

func (d *dumper) Dump(v *vehicle.Mitsubishi) {
	w := d.writer()
	info := v.Info()

	fmt.Fprintf(w, "Title:\t%s\n", v.Title())
	fmt.Fprintf(w, "Model:\t%s (%s)\n", info.ModelDescription, info.Model)
	fmt.Fprintf(w, "VIN:\t%s\n", info.VIN)

	dumpAPI(w, v)

	fields, err := v.Fields()
	if err != nil {
		fmt.Fprintf(w, "Error:\t%v\n", err)
		return
	}

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Key", "Value"})
	table.SetAutoWrapText(false)

	for _, key := range keys {
		table.Append([]string{key, format(key, fields[key])})
	}

	table.Render()
}
