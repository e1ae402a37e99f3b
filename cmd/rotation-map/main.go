package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/goccy/go-json"

	"github.com/ngmaloney/rotation-map/internal/app"
	"github.com/ngmaloney/rotation-map/internal/config"
	"github.com/ngmaloney/rotation-map/internal/landmask"
	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/ports"
	"github.com/ngmaloney/rotation-map/internal/rotations"
	"github.com/ngmaloney/rotation-map/internal/route"
)

type options struct {
	configPath     string
	rotation       string
	service        string
	format         string
	importPorts    string
	importProforma string
	checkPorts     bool
	provisionLand  bool
}

func main() {
	var opts options
	flag.StringVar(&opts.configPath, "config", "", "Path to a YAML config file")
	flag.StringVar(&opts.rotation, "rotation", "", `Rotation to route (e.g. "Busan, Shanghai -> Rotterdam")`)
	flag.StringVar(&opts.service, "service", "", "Name of a stored service to route")
	flag.StringVar(&opts.format, "format", "json", "Output format: json, geojson or polyline")
	flag.StringVar(&opts.importPorts, "import-ports", "", "Import port coordinates from a CSV file")
	flag.StringVar(&opts.importProforma, "import-proforma", "", "Import service rotations from a proforma CSV file")
	flag.BoolVar(&opts.checkPorts, "check-ports", false, "Report rotation ports that match no known port")
	flag.BoolVar(&opts.provisionLand, "provision-land", false, "Download the Natural Earth land shapefile")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options, out io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}
	logging.Init(cfg.Logger())

	if opts.provisionLand {
		path, err := landmask.Provision(ctx, cfg.Land.DataDir, cfg.Land.ShapefileURL)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Land shapefile ready: %s\n", path)
		return nil
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	switch {
	case opts.importPorts != "":
		return importPorts(ctx, a, opts.importPorts, out)
	case opts.importProforma != "":
		return importProforma(ctx, a, opts.importProforma, out)
	case opts.checkPorts:
		return checkPorts(ctx, a, out)
	case opts.rotation != "":
		return buildAndWrite(ctx, a, opts.rotation, rotations.Parse(opts.rotation), opts.format, out)
	case opts.service != "":
		svc, err := a.Rotations.GetServiceByName(ctx, opts.service)
		if errors.Is(err, rotations.ErrServiceNotFound) {
			return fmt.Errorf("service %q not found", opts.service)
		}
		if err != nil {
			return err
		}
		return buildAndWrite(ctx, a, svc.Name, svc.PortNames(), opts.format, out)
	}

	flag.Usage()
	return errors.New("nothing to do: pass -rotation, -service or an import flag")
}

func importPorts(ctx context.Context, a *app.App, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stats, err := ports.ImportCSV(ctx, a.Ports, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d ports (%d rows skipped)\n", stats.Imported, stats.Skipped)
	return nil
}

func importProforma(ctx context.Context, a *app.App, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	n, err := rotations.ImportProforma(ctx, a.Rotations, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Imported %d services\n", n)
	return nil
}

func checkPorts(ctx context.Context, a *app.App, out io.Writer) error {
	services, err := a.Rotations.ListServices(ctx)
	if err != nil {
		return err
	}
	names := make([][]string, len(services))
	for i, svc := range services {
		names[i] = svc.PortNames()
	}

	unmatched, err := ports.CheckRotations(ctx, a.Directory, names)
	if err != nil {
		return err
	}
	if len(unmatched) == 0 {
		fmt.Fprintln(out, "All rotation ports matched")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tCALLS")
	for _, u := range unmatched {
		fmt.Fprintf(tw, "%s\t%d\n", u.Name, u.Count)
	}
	return tw.Flush()
}

func buildAndWrite(ctx context.Context, a *app.App, name string, names []string, format string, out io.Writer) error {
	res, err := a.Engine.Build(ctx, names)
	if err != nil {
		return err
	}
	return writeResult(out, name, res, format)
}

func writeResult(out io.Writer, name string, res *route.Result, format string) error {
	switch format {
	case "geojson":
		body, err := route.ToGeoJSON(res.Geometry, map[string]any{
			"name":            name,
			"unresolved":      res.Unresolved,
			"failed_segments": res.FailedSegments,
		})
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(body))
		return err
	case "polyline":
		_, err := fmt.Fprintln(out, route.ToEncodedPolyline(res.Geometry))
		return err
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Name           string       `json:"name"`
			Geometry       [][2]float64 `json:"geometry"`
			Unresolved     []string     `json:"unresolved"`
			FailedSegments int          `json:"failed_segments"`
		}{name, route.ToLatLngPairs(res.Geometry), res.Unresolved, res.FailedSegments})
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
