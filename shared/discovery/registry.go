package discovery

import (
	"fmt"
	"strings"
	"sync/atomic"
)

type Resolver interface {
	Resolve(service string) (string, error)
}

// Registry maps a logical service name to its instances and hands them out
// round robin.
type Registry struct {
	instances map[string][]string
	next      map[string]*atomic.Uint64
}

func NewRegistry(instances map[string][]string) *Registry {
	r := &Registry{
		instances: make(map[string][]string, len(instances)),
		next:      make(map[string]*atomic.Uint64, len(instances)),
	}
	for service, urls := range instances {
		cleaned := make([]string, 0, len(urls))
		for _, u := range urls {
			u = strings.TrimRight(strings.TrimSpace(u), "/")
			if u != "" {
				cleaned = append(cleaned, u)
			}
		}
		r.instances[service] = cleaned
		r.next[service] = new(atomic.Uint64)
	}
	return r
}

// ParseEndpoints reads "name=url|url,name=url".
func ParseEndpoints(spec string) (*Registry, error) {
	instances := make(map[string][]string)
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, urls, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" || strings.TrimSpace(urls) == "" {
			return nil, fmt.Errorf("invalid service endpoint entry %q", entry)
		}
		name = strings.TrimSpace(name)
		instances[name] = append(instances[name], strings.Split(urls, "|")...)
	}
	return NewRegistry(instances), nil
}

func (r *Registry) Resolve(service string) (string, error) {
	urls := r.instances[service]
	if len(urls) == 0 {
		return "", fmt.Errorf("no instances registered for service %q", service)
	}
	n := r.next[service].Add(1) - 1
	return urls[n%uint64(len(urls))], nil
}
