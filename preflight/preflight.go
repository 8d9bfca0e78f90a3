// Package preflight reports whether the importer has what it needs to run.
package preflight

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/xuri/excelize/v2"
)

type Check struct {
	Name    string `json:"name"`
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

type Report struct {
	OK     bool              `json:"ok"`
	Checks []Check           `json:"checks"`
	Env    map[string]string `json:"env"`
}

// Pinger is satisfied by the SQLite store.
type Pinger interface {
	Ping() error
}

type Options struct {
	UploadDir   string
	DBPath      string
	DB          Pinger
	ProjectRoot string
}

// Run executes every check. A failed check marks the report as not OK but
// never stops the remaining checks.
func Run(opts Options) Report {
	report := Report{
		OK:     true,
		Checks: make([]Check, 0, 5),
		Env: map[string]string{
			"go_version":   runtime.Version(),
			"os":           runtime.GOOS,
			"arch":         runtime.GOARCH,
			"project_root": opts.ProjectRoot,
			"upload_dir":   opts.UploadDir,
			"db_path":      opts.DBPath,
		},
	}

	report.add("go runtime", nil, runtime.Version())
	report.add("upload directory writable", checkWritableDir(opts.UploadDir), opts.UploadDir)
	report.add("sqlite database reachable", checkDatabase(opts.DB), opts.DBPath)
	report.add("spreadsheet support", checkSpreadsheet(), "xlsx round trip")
	report.add("project root readable", checkReadableDir(opts.ProjectRoot), opts.ProjectRoot)

	return report
}

func (r *Report) add(name string, err error, detail string) {
	check := Check{Name: name, OK: err == nil, Message: "OK"}
	if detail != "" {
		check.Message = "OK: " + detail
	}
	if err != nil {
		check.Message = err.Error()
		r.OK = false
	}
	r.Checks = append(r.Checks, check)
}

func checkWritableDir(dir string) error {
	if dir == "" {
		return errors.New("not configured")
	}
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		return fmt.Errorf("write to %s: %w", dir, err)
	}
	name := probe.Name()
	_ = probe.Close()
	if err := os.Remove(name); err != nil {
		return fmt.Errorf("remove probe file: %w", err)
	}
	return nil
}

func checkDatabase(db Pinger) error {
	if db == nil {
		return errors.New("not opened")
	}
	return db.Ping()
}

func checkSpreadsheet() error {
	const want = "preflight"

	file := excelize.NewFile()
	defer file.Close()
	sheet := file.GetSheetName(0)
	if err := file.SetCellValue(sheet, "A1", want); err != nil {
		return fmt.Errorf("set cell: %w", err)
	}
	buf, err := file.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}

	reopened, err := excelize.OpenReader(buf)
	if err != nil {
		return fmt.Errorf("read workbook: %w", err)
	}
	defer reopened.Close()
	got, err := reopened.GetCellValue(reopened.GetSheetName(0), "A1")
	if err != nil {
		return fmt.Errorf("read cell: %w", err)
	}
	if got != want {
		return fmt.Errorf("round trip returned %q", got)
	}
	return nil
}

func checkReadableDir(dir string) error {
	if dir == "" {
		return errors.New("not configured")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	if _, err := os.ReadDir(abs); err != nil {
		return fmt.Errorf("read %s: %w", abs, err)
	}
	return nil
}
