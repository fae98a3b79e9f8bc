package domain

// SettingClusterSettings is the settings group that legacy cluster-env
// properties migrate into.
const SettingClusterSettings = "cluster_settings"

// Setting holds blueprint-level settings groups. Each group is a set of
// key/value records; the cluster_settings group by convention holds exactly
// one record.
type Setting struct {
	properties map[string][]map[string]string
}

// NewSetting creates a Setting from the given groups. A nil map is allowed.
func NewSetting(properties map[string][]map[string]string) *Setting {
	if properties == nil {
		properties = make(map[string][]map[string]string)
	}
	return &Setting{properties: properties}
}

// Properties returns all settings groups keyed by group name.
func (s *Setting) Properties() map[string][]map[string]string {
	return s.properties
}

// ClusterSettings returns the single cluster_settings record, creating it on
// first access.
func (s *Setting) ClusterSettings() map[string]string {
	records := s.properties[SettingClusterSettings]
	if len(records) == 0 {
		record := make(map[string]string)
		s.properties[SettingClusterSettings] = []map[string]string{record}
		return record
	}
	return records[0]
}
