package catalog

import "fmt"

// DeploymentKey names one manifest format.
type DeploymentKey string

const (
	DeployScript        DeploymentKey = "script"
	DeployDocker        DeploymentKey = "docker"
	DeployDockerCompose DeploymentKey = "docker_compose"
	DeployHelm          DeploymentKey = "helm"
	DeployKubernetes    DeploymentKey = "kubernetes"
	DeployTerraform     DeploymentKey = "terraform"
)

// DeploymentKeys lists every deployment key in display order.
var DeploymentKeys = []DeploymentKey{
	DeployScript,
	DeployDocker,
	DeployDockerCompose,
	DeployHelm,
	DeployKubernetes,
	DeployTerraform,
}

// ManifestFiles maps each deployment key to its canonical manifest filename.
var ManifestFiles = map[DeploymentKey]string{
	DeployScript:        "script.sh",
	DeployDocker:        "Dockerfile",
	DeployDockerCompose: "docker-compose.yaml",
	DeployHelm:          "helm.yaml",
	DeployKubernetes:    "k8s-deployment.yaml",
	DeployTerraform:     "main.tf",
}

// ManifestRoot is the public URL prefix of every manifest path.
const ManifestRoot = "/public/manifests"

// placeholderSlug stands in for a slug that has not been typed yet.
const placeholderSlug = "app-name"

// ParseDeploymentKey validates a key received from a client.
func ParseDeploymentKey(s string) (DeploymentKey, error) {
	k := DeploymentKey(s)
	if _, ok := ManifestFiles[k]; !ok {
		return "", fmt.Errorf("unknown deployment key %q", s)
	}
	return k, nil
}

// ManifestFileName returns the on-disk filename for key, after sanitization.
func ManifestFileName(key DeploymentKey) string {
	return Sanitize(ManifestFiles[key])
}

// ManifestPath returns the deterministic public path of the manifest for
// (slug, key). It names the same file the manifest store writes.
func ManifestPath(slug string, key DeploymentKey) string {
	dir := placeholderSlug
	if slug != "" {
		dir = Sanitize(slug)
	}
	return ManifestRoot + "/" + dir + "/" + ManifestFileName(key)
}

// DeploymentPaths carries the manifest path of every enabled deployment key.
type DeploymentPaths struct {
	Script        *string `json:"script"`
	Docker        *string `json:"docker"`
	DockerCompose *string `json:"docker_compose"`
	Helm          *string `json:"helm"`
	Kubernetes    *string `json:"kubernetes"`
	Terraform     *string `json:"terraform"`
}

// Deployment holds the manifest formats available for an install method.
type Deployment struct {
	Script        bool            `json:"script"`
	Docker        bool            `json:"docker"`
	DockerCompose bool            `json:"docker_compose"`
	Helm          bool            `json:"helm"`
	Kubernetes    bool            `json:"kubernetes"`
	Terraform     bool            `json:"terraform"`
	Paths         DeploymentPaths `json:"paths"`
}

func (d *Deployment) flag(key DeploymentKey) *bool {
	switch key {
	case DeployScript:
		return &d.Script
	case DeployDocker:
		return &d.Docker
	case DeployDockerCompose:
		return &d.DockerCompose
	case DeployHelm:
		return &d.Helm
	case DeployKubernetes:
		return &d.Kubernetes
	case DeployTerraform:
		return &d.Terraform
	}
	return nil
}

func (p *DeploymentPaths) slot(key DeploymentKey) **string {
	switch key {
	case DeployScript:
		return &p.Script
	case DeployDocker:
		return &p.Docker
	case DeployDockerCompose:
		return &p.DockerCompose
	case DeployHelm:
		return &p.Helm
	case DeployKubernetes:
		return &p.Kubernetes
	case DeployTerraform:
		return &p.Terraform
	}
	return nil
}

// Enabled reports whether the flag for key is set.
func (d Deployment) Enabled(key DeploymentKey) bool {
	f := d.flag(key)
	return f != nil && *f
}

// Set updates the flag for key without touching its path.
func (d *Deployment) Set(key DeploymentKey, on bool) {
	if f := d.flag(key); f != nil {
		*f = on
	}
}

// Path returns the manifest path recorded for key, or nil.
func (d Deployment) Path(key DeploymentKey) *string {
	s := d.Paths.slot(key)
	if s == nil {
		return nil
	}
	return *s
}

// SetPath records the manifest path for key. A nil path clears it.
func (d *Deployment) SetPath(key DeploymentKey, path *string) {
	if s := d.Paths.slot(key); s != nil {
		*s = clonePtr(path)
	}
}

// Toggle sets the flag for key and, in the same step, the matching manifest
// path: the canonical path of (slug, key) when on, nil when off.
func (d *Deployment) Toggle(slug string, key DeploymentKey, on bool) {
	d.Set(key, on)
	if !on {
		d.SetPath(key, nil)
		return
	}
	path := ManifestPath(slug, key)
	d.SetPath(key, &path)
}

// EnabledKeys returns the enabled keys in display order.
func (d Deployment) EnabledKeys() []DeploymentKey {
	var keys []DeploymentKey
	for _, k := range DeploymentKeys {
		if d.Enabled(k) {
			keys = append(keys, k)
		}
	}
	return keys
}

// Count returns the number of enabled deployment flags.
func (d Deployment) Count() int {
	return len(d.EnabledKeys())
}

func (p DeploymentPaths) clone() DeploymentPaths {
	return DeploymentPaths{
		Script:        clonePtr(p.Script),
		Docker:        clonePtr(p.Docker),
		DockerCompose: clonePtr(p.DockerCompose),
		Helm:          clonePtr(p.Helm),
		Kubernetes:    clonePtr(p.Kubernetes),
		Terraform:     clonePtr(p.Terraform),
	}
}
