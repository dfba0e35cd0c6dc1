package frr

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

const (
	// DaemonsFileName is the FRR daemons file written next to the configs.
	DaemonsFileName = "daemons"

	// ContainerConfigPath is where FRR reads its integrated configuration.
	ContainerConfigPath = "/etc/frr/frr.conf"

	// ContainerDaemonsPath is where FRR reads its daemons file.
	ContainerDaemonsPath = "/etc/frr/daemons"
)

// ConfigFileName returns the file name of a router's configuration.
func ConfigFileName(id string) string {
	return id + "_frr.conf"
}

// Render joins the configuration lines, each terminated by exactly one
// newline.
func (r *Router) Render() string {
	var b strings.Builder
	for _, line := range r.Lines {
		b.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// WriteConfigs writes one configuration file per router into dir,
// replacing existing files.
func WriteConfigs(dir string, routers []*Router) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	for _, r := range routers {
		path := filepath.Join(dir, ConfigFileName(r.ID))
		if err := os.WriteFile(path, []byte(r.Render()), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
	}

	return nil
}

const daemonsTemplate = `{{ range .Daemons }}{{ . }}=yes
{{ end }}{{ range .Disabled }}{{ . }}=no
{{ end }}
vtysh_enable=yes
zebra_options="  -A 127.0.0.1 -s 90000000"
{{ range .Daemons }}{{ if ne . "zebra" }}{{ . }}_options="  -A 127.0.0.1"
{{ end }}{{ end }}`

// DaemonsData selects which FRR daemons are started.
type DaemonsData struct {
	Daemons  []string
	Disabled []string
}

// DefaultDaemons enables the daemons the generated configuration needs.
func DefaultDaemons() DaemonsData {
	return DaemonsData{
		Daemons:  []string{"zebra", "bgpd", "ospfd"},
		Disabled: []string{"ospf6d", "ripd", "ripngd", "isisd", "pimd", "ldpd", "nhrpd", "eigrpd", "babeld", "sharpd", "pbrd", "bfdd", "fabricd", "vrrpd"},
	}
}

// RenderDaemons renders the FRR daemons file.
func RenderDaemons(data DaemonsData) (string, error) {
	tmpl, err := template.New(DaemonsFileName).Parse(daemonsTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// WriteDaemons renders the daemons file into dir.
func WriteDaemons(dir string, data DaemonsData) error {
	content, err := RenderDaemons(data)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", DaemonsFileName, err)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, DaemonsFileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
