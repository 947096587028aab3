package domain

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Service describes one deployable component of the stack. The container
// name is always identical to the service name, and the data directory
// lives at <root>/<Name>.
type Service struct {
	Name    string
	UID     int
	GID     int
	DirMode os.FileMode
}

// DataDir returns the host data directory of the service under the given root.
func (s Service) DataDir(root string) string {
	return filepath.Join(root, s.Name)
}

// ContainerName returns the name of the container running the service.
func (s Service) ContainerName() string {
	return s.Name
}

// knownServices is the static registry of every service the stack knows
// about. Database-flavored services get a restrictive 0750 data directory,
// everything else 0755. The UID/GID pairs match the users baked into the
// upstream images.
var knownServices = []Service{
	{Name: "traefik", UID: 0, GID: 0, DirMode: 0755},
	{Name: "nextcloud", UID: 33, GID: 33, DirMode: 0755},
	{Name: "postgres", UID: 999, GID: 999, DirMode: 0750},
	{Name: "mariadb", UID: 999, GID: 999, DirMode: 0750},
	{Name: "redis", UID: 999, GID: 999, DirMode: 0750},
	{Name: "influxdb", UID: 999, GID: 999, DirMode: 0750},
	{Name: "jenkins", UID: 1000, GID: 1000, DirMode: 0755},
	{Name: "gitea", UID: 1000, GID: 1000, DirMode: 0755},
	{Name: "grafana", UID: 472, GID: 472, DirMode: 0755},
	{Name: "prometheus", UID: 65534, GID: 65534, DirMode: 0755},
	{Name: "mosquitto", UID: 1883, GID: 1883, DirMode: 0755},
	{Name: "homeassistant", UID: 0, GID: 0, DirMode: 0755},
	{Name: "ollama", UID: 0, GID: 0, DirMode: 0755},
	{Name: "jellyfin", UID: 1000, GID: 1000, DirMode: 0755},
	{Name: "pihole", UID: 0, GID: 0, DirMode: 0755},
	{Name: "vaultwarden", UID: 0, GID: 0, DirMode: 0755},
	{Name: "portainer", UID: 0, GID: 0, DirMode: 0755},
}

// KnownServices returns every registered service, sorted by name.
func KnownServices() []Service {
	services := make([]Service, len(knownServices))
	copy(services, knownServices)
	sort.Slice(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services
}

// KnownServiceNames returns the sorted names of every registered service.
func KnownServiceNames() []string {
	names := make([]string, 0, len(knownServices))
	for _, s := range knownServices {
		names = append(names, s.Name)
	}
	sort.Strings(names)
	return names
}

// LookupService finds a service descriptor by exact name.
func LookupService(name string) (Service, bool) {
	for _, s := range knownServices {
		if s.Name == name {
			return s, true
		}
	}
	return Service{}, false
}

// ResolveServices validates a list of service names against the registry.
// A single unknown name fails the whole list, before any work begins.
func ResolveServices(names []string) ([]Service, error) {
	services := make([]Service, 0, len(names))
	for _, name := range names {
		s, ok := LookupService(name)
		if !ok {
			return nil, fmt.Errorf("unknown service '%s' (known services: %s)",
				name, strings.Join(KnownServiceNames(), ", "))
		}
		services = append(services, s)
	}
	return services, nil
}

// OwnerForPath resolves the service owning a host path under the data root.
// Only whole path segments are compared, so a directory like
// "postgres-backup" never inherits the postgres descriptor.
func OwnerForPath(path, root string) (Service, bool) {
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return Service{}, false
	}
	for _, segment := range strings.Split(rel, string(filepath.Separator)) {
		if s, ok := LookupService(segment); ok {
			return s, true
		}
	}
	return Service{}, false
}
