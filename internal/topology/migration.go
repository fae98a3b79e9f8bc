package topology

import (
	"log"
	"sort"

	"clusterforge/internal/domain"
)

// Legacy cluster-env properties whose consumers have all moved to cluster
// settings. Everything else is left duplicated in cluster-env because older
// code paths still read it there. Eventually all cluster-env properties
// should migrate and this list should go away.
var safeToRemoveFromClusterEnv = map[string]struct{}{
	"command_retry_enabled":         {},
	"command_retry_max_time_in_sec": {},
	"commands_to_retry":             {},
}

// migrateClusterEnv lifts flat cluster-env properties recognized as cluster
// settings by the stack into the structured cluster_settings group. It runs
// once per topology construction. Re-running it is harmless: already-removed
// properties are gone, and converted-but-retained properties are re-copied
// with the same value.
func migrateClusterEnv(configuration *domain.Configuration, setting *domain.Setting, clusterSettingNames []string) {
	recognized := make(map[string]struct{}, len(clusterSettingNames))
	for _, name := range clusterSettingNames {
		recognized[name] = struct{}{}
	}

	clusterEnv := configuration.GetFullProperties()[domain.ConfigTypeClusterEnv]

	var toConvert, remaining []string
	for name := range clusterEnv {
		if _, ok := recognized[name]; ok {
			toConvert = append(toConvert, name)
		} else {
			remaining = append(remaining, name)
		}
	}
	sort.Strings(toConvert)

	log.Printf("Converting %d cluster-env properties to cluster settings, leaving %d as is",
		len(toConvert), len(remaining))

	clusterSettings := setting.ClusterSettings()
	for _, name := range toConvert {
		clusterSettings[name] = clusterEnv[name]
		if _, ok := safeToRemoveFromClusterEnv[name]; ok {
			configuration.RemoveProperty(domain.ConfigTypeClusterEnv, name)
		}
	}
}
