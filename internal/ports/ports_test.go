package ports

import (
	"context"
	"database/sql"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ngmaloney/rotation-map/internal/database"
	"github.com/ngmaloney/rotation-map/internal/models"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenMemory()
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Busan", "busan"},
		{"  Long Beach ", "long beach"},
		{"Manzanillo(Mexico)", "manzanillo"},
		{"Manzanillo (PA)", "manzanillo"},
		{"Rotterdam (NL) (Maasvlakte)", "rotterdam"},
		{"", ""},
		{"(TBA)", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := NormalizeName(tt.in); got != tt.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestStaticDirectory(t *testing.T) {
	dir := DefaultDirectory()
	ctx := context.Background()

	tests := []struct {
		name   string
		wantOK bool
		want   models.Coordinate
	}{
		{"Busan", true, models.Coordinate{Lat: 35.1, Lng: 129.0}},
		{"PUSAN", true, models.Coordinate{Lat: 35.1, Lng: 129.0}},
		{"Long Beach (CA)", true, models.Coordinate{Lat: 33.7, Lng: -118.2}},
		{"Atlantis", false, models.Coordinate{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := dir.Resolve(ctx, tt.name)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Resolve(%q) = %v, %v; want %v, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

type failingDirectory struct{}

func (failingDirectory) Resolve(context.Context, string) (models.Coordinate, bool, error) {
	return models.Coordinate{}, false, errors.New("database is locked")
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	first := NewStaticDirectory(map[string]models.Coordinate{"Busan": {Lat: 1, Lng: 1}})
	chain := Chain{first, DefaultDirectory()}

	pos, ok, err := chain.Resolve(ctx, "Busan")
	if err != nil || !ok || pos.Lat != 1 {
		t.Errorf("first directory should win, got %v %v %v", pos, ok, err)
	}

	pos, ok, _ = chain.Resolve(ctx, "Rotterdam")
	if !ok || pos.Lat != 51.9 {
		t.Errorf("fallback directory should match Rotterdam, got %v %v", pos, ok)
	}

	if _, _, err := (Chain{failingDirectory{}, first}).Resolve(ctx, "Busan"); err == nil {
		t.Error("expected lookup error to propagate")
	}
}

func TestRepository_SaveAndResolve(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	busan := &models.Port{Name: "Busan", Code: "KRPUS", Latitude: 35.1, Longitude: 129.0, Aliases: []string{"Pusan", "Busan New Port"}}
	if err := repo.SavePort(ctx, busan); err != nil {
		t.Fatalf("SavePort() error = %v", err)
	}
	if busan.ID == 0 {
		t.Error("SavePort() did not set ID")
	}

	tests := []struct {
		name   string
		wantOK bool
	}{
		{"Busan", true},
		{"busan (KR)", true},
		{"Pusan", true},
		{"BUSAN NEW PORT", true},
		{"Shanghai", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pos, ok, err := repo.Resolve(ctx, tt.name)
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if ok != tt.wantOK {
				t.Fatalf("Resolve(%q) ok = %v, want %v", tt.name, ok, tt.wantOK)
			}
			if ok && (pos.Lat != 35.1 || pos.Lng != 129.0) {
				t.Errorf("Resolve(%q) = %v", tt.name, pos)
			}
		})
	}
}

func TestRepository_ExactNameBeatsAlias(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	// "Manzanillo" is an alias of the Panama port and the name of the Mexican one
	if err := repo.SavePort(ctx, &models.Port{Name: "Manzanillo Panama", Latitude: 9.4, Longitude: -79.9, Aliases: []string{"Manzanillo"}}); err != nil {
		t.Fatal(err)
	}
	if err := repo.SavePort(ctx, &models.Port{Name: "Manzanillo", Latitude: 19.1, Longitude: -104.3}); err != nil {
		t.Fatal(err)
	}

	pos, ok, err := repo.Resolve(ctx, "Manzanillo(Mexico)")
	if err != nil || !ok {
		t.Fatalf("Resolve() = %v, %v", ok, err)
	}
	if pos.Lat != 19.1 {
		t.Errorf("expected exact name match, got %v", pos)
	}
}

func TestRepository_Upsert(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	first := &models.Port{Name: "Rotterdam", Latitude: 51.0, Longitude: 4.0}
	if err := repo.SavePort(ctx, first); err != nil {
		t.Fatal(err)
	}
	second := &models.Port{Name: "ROTTERDAM", Latitude: 51.9, Longitude: 4.5}
	if err := repo.SavePort(ctx, second); err != nil {
		t.Fatal(err)
	}

	if second.ID != first.ID {
		t.Errorf("upsert changed ID from %d to %d", first.ID, second.ID)
	}

	ports, err := repo.ListPorts(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(ports) != 1 || ports[0].Latitude != 51.9 {
		t.Errorf("expected one updated port, got %+v", ports)
	}
}

func TestRepository_ListAddAliasDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))

	for _, p := range []*models.Port{
		{Name: "Shanghai", Latitude: 31.2, Longitude: 121.5},
		{Name: "Busan", Latitude: 35.1, Longitude: 129.0},
	} {
		if err := repo.SavePort(ctx, p); err != nil {
			t.Fatal(err)
		}
	}

	if err := repo.AddAlias(ctx, "Shanghai", "Yangshan"); err != nil {
		t.Fatalf("AddAlias() error = %v", err)
	}
	if err := repo.AddAlias(ctx, "Atlantis", "Lost City"); !errors.Is(err, ErrNotFound) {
		t.Errorf("AddAlias() on unknown port error = %v, want ErrNotFound", err)
	}

	ports, err := repo.ListPorts(ctx)
	if err != nil {
		t.Fatalf("ListPorts() error = %v", err)
	}
	if len(ports) != 2 || ports[0].Name != "Busan" {
		t.Fatalf("ListPorts() = %+v, want Busan first", ports)
	}
	if !reflect.DeepEqual(ports[1].Aliases, []string{"Yangshan"}) {
		t.Errorf("Shanghai aliases = %v", ports[1].Aliases)
	}

	if err := repo.DeletePort(ctx, "Shanghai"); err != nil {
		t.Fatalf("DeletePort() error = %v", err)
	}
	if _, ok, _ := repo.Resolve(ctx, "Yangshan"); ok {
		t.Error("alias should be removed with its port")
	}
	if err := repo.DeletePort(ctx, "Shanghai"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second DeletePort() error = %v, want ErrNotFound", err)
	}
}

func TestService_CreatePortValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewRepository(setupTestDB(t)))

	tests := []struct {
		name    string
		in      PortInput
		wantErr bool
	}{
		{"valid", PortInput{Name: "Busan", Code: "krpus", Latitude: 35.1, Longitude: 129.0}, false},
		{"no name", PortInput{Name: "  ", Latitude: 1, Longitude: 1}, true},
		{"latitude out of range", PortInput{Name: "North", Latitude: 91, Longitude: 0}, true},
		{"longitude out of range", PortInput{Name: "East", Latitude: 0, Longitude: 181}, true},
		{"bad locode", PortInput{Name: "Odd", Code: "AB", Latitude: 0, Longitude: 0}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := svc.CreatePort(ctx, tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreatePort() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && p.Code != "KRPUS" {
				t.Errorf("Code = %q, want upper-cased KRPUS", p.Code)
			}
		})
	}
}

func TestParseAliases(t *testing.T) {
	tests := []struct {
		cell string
		want []string
	}{
		{"", nil},
		{"Pusan", []string{"Pusan"}},
		{`["Pusan", "Busan New Port"]`, []string{"Pusan", "Busan New Port"}},
		{"['Pusan', 'Busan New Port']", []string{"Pusan", "Busan New Port"}},
		{"[Pusan, Gamman]", []string{"Pusan", "Gamman"}},
		{"[]", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.cell, func(t *testing.T) {
			if got := ParseAliases(tt.cell); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseAliases(%q) = %#v, want %#v", tt.cell, got, tt.want)
			}
		})
	}
}

func TestImportCSV(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository(setupTestDB(t))
	svc := NewService(repo)

	data := strings.Join([]string{
		"port_name,lat,lon,locode,aliases",
		`Busan,35.1,129.0,KRPUS,"['Pusan']"`,
		"Shanghai,31.2,121.5,CNSHA,",
		"Nowhere,abc,1,,",
		"Northpole,95,0,,",
	}, "\n")

	stats, err := ImportCSV(ctx, svc, strings.NewReader(data))
	if err != nil {
		t.Fatalf("ImportCSV() error = %v", err)
	}
	if stats.Imported != 2 || stats.Skipped != 2 {
		t.Errorf("stats = %+v, want 2 imported and 2 skipped", stats)
	}

	if _, ok, _ := repo.Resolve(ctx, "Pusan"); !ok {
		t.Error("alias from CSV should resolve")
	}
}

func TestImportCSVMissingColumn(t *testing.T) {
	svc := NewService(NewRepository(setupTestDB(t)))
	_, err := ImportCSV(context.Background(), svc, strings.NewReader("name,latitude\nBusan,35\n"))
	if err == nil {
		t.Error("expected error for missing lon column")
	}
}

func TestCheckRotations(t *testing.T) {
	rotations := [][]string{
		{"Busan", "Atlantis", "Shanghai"},
		{"Atlantis", "Lemuria", " "},
		{"Rotterdam", "Lemuria", "Atlantis"},
	}

	got, err := CheckRotations(context.Background(), DefaultDirectory(), rotations)
	if err != nil {
		t.Fatalf("CheckRotations() error = %v", err)
	}

	want := []Unmatched{{Name: "Atlantis", Count: 3}, {Name: "Lemuria", Count: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("CheckRotations() = %v, want %v", got, want)
	}
}
