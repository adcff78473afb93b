package framework

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jirwin/modbot/pkg/data_store/boltdb"
	"github.com/jirwin/modbot/pkg/module_loader"
)

const (
	serviceTypeKey   = "type"
	serviceTypeValue = "value"
	serviceTypeKV    = "kv"
	defaultKVPath    = "modbot.db"
)

// Services is the namespace of loaded services, keyed by file name.
type Services struct {
	names  []string
	values map[string]any
}

func newServices() *Services {
	return &Services{
		values: make(map[string]any),
	}
}

func (s *Services) set(name string, v any) {
	if _, ok := s.values[name]; !ok {
		s.names = append(s.names, name)
	}
	s.values[name] = v
}

// Get returns the service called name.
func (s *Services) Get(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.values[name]
	return v, ok
}

// Names returns the service names in load order.
func (s *Services) Names() []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s.names...)
}

func (s *Services) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Services returns the namespace handed to the client.
func (fw *Framework) Services() *Services {
	return fw.services
}

func (fw *Framework) buildServices(modules []*module_loader.Module) error {
	fw.services = newServices()
	dbs := make(map[string]*boltdb.DB)

	for _, m := range modules {
		raw, present := m.Table[serviceTypeKey]
		kind, ok := raw.(string)
		if present && !ok {
			return fmt.Errorf("%w: service '%s' has a non-string type", ErrModuleLoad, m.Path)
		}

		switch kind {
		case "", serviceTypeValue:
			value := make(map[string]any, len(m.Table))
			for k, v := range m.Table {
				if k == serviceTypeKey {
					continue
				}
				value[k] = v
			}
			fw.services.set(m.Name, value)

		case serviceTypeKV:
			dbPath := defaultKVPath
			if p, ok := m.Table["path"].(string); ok && p != "" {
				dbPath = p
			}
			if !filepath.IsAbs(dbPath) {
				dbPath = filepath.Join(fw.paths.Services, dbPath)
			}

			db, ok := dbs[dbPath]
			if !ok {
				var err error
				db, err = boltdb.Open(dbPath)
				if err != nil {
					return fmt.Errorf("%w: service '%s': %v", ErrModuleLoad, m.Path, err)
				}
				dbs[dbPath] = db
				fw.closers = append(fw.closers, db)
			}

			store, err := db.Bucket(m.Name)
			if err != nil {
				return fmt.Errorf("%w: service '%s': %v", ErrModuleLoad, m.Path, err)
			}
			fw.services.set(m.Name, store)

		default:
			return fmt.Errorf("%w: service '%s' has unknown type '%s'", ErrModuleLoad, m.Path, kind)
		}

		fw.l.Info("loaded service", zap.String("service_name", m.Name), zap.String("type", orDefault(kind, serviceTypeValue)))
	}

	return nil
}

func (fw *Framework) attachServices() {
	fw.client.SetServices(fw.namespace, fw.services)
}
