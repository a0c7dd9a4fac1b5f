// Package rediskeys maps logical metric and alert names onto the fixed
// short keys the monitoring stack stores under in Redis. Consumers treat
// the returned keys as opaque strings; the only structure callers may rely
// on is that all keys for one chain live inside that chain's parent hash.
package rediskeys

// Parent hash prefix. Every per-chain key is a field inside this hash.
const parentHashPrefix = "hash_p1_"

// ParentHash returns the Redis hash name holding all keys for a chain.
func ParentHash(chainID string) string {
	return parentHashPrefix + chainID
}

// System metric keys, one per monitored host metric.
const (
	systemProcessCPUSecondsTotal      = "s1"
	systemProcessMemoryUsage          = "s2"
	systemVirtualMemoryUsage          = "s3"
	systemOpenFileDescriptors         = "s4"
	systemCPUUsage                    = "s5"
	systemRAMUsage                    = "s6"
	systemStorageUsage                = "s7"
	systemNetworkTransmitBytesPerSec  = "s8"
	systemNetworkReceiveBytesPerSec   = "s9"
	systemDiskIOTimeSecondsInInterval = "s10"
	systemLastMonitored               = "s11"
	systemWentDownAt                  = "s12"
)

func suffixed(base, id string) string {
	return base + "_" + id
}

// SystemProcessCPUSecondsTotal keys the process CPU seconds metric.
func SystemProcessCPUSecondsTotal(systemID string) string {
	return suffixed(systemProcessCPUSecondsTotal, systemID)
}

// SystemProcessMemoryUsage keys the process memory usage metric.
func SystemProcessMemoryUsage(systemID string) string {
	return suffixed(systemProcessMemoryUsage, systemID)
}

// SystemVirtualMemoryUsage keys the virtual memory usage metric.
func SystemVirtualMemoryUsage(systemID string) string {
	return suffixed(systemVirtualMemoryUsage, systemID)
}

// SystemOpenFileDescriptors keys the open file descriptor metric.
func SystemOpenFileDescriptors(systemID string) string {
	return suffixed(systemOpenFileDescriptors, systemID)
}

// SystemCPUUsage keys the host CPU usage metric.
func SystemCPUUsage(systemID string) string {
	return suffixed(systemCPUUsage, systemID)
}

// SystemRAMUsage keys the host RAM usage metric.
func SystemRAMUsage(systemID string) string {
	return suffixed(systemRAMUsage, systemID)
}

// SystemStorageUsage keys the host storage usage metric.
func SystemStorageUsage(systemID string) string {
	return suffixed(systemStorageUsage, systemID)
}

// SystemNetworkTransmitBytesPerSecond keys the transmit throughput metric.
func SystemNetworkTransmitBytesPerSecond(systemID string) string {
	return suffixed(systemNetworkTransmitBytesPerSec, systemID)
}

// SystemNetworkReceiveBytesPerSecond keys the receive throughput metric.
func SystemNetworkReceiveBytesPerSecond(systemID string) string {
	return suffixed(systemNetworkReceiveBytesPerSec, systemID)
}

// SystemDiskIOTimeSecondsInInterval keys the disk IO time metric.
func SystemDiskIOTimeSecondsInInterval(systemID string) string {
	return suffixed(systemDiskIOTimeSecondsInInterval, systemID)
}

// SystemLastMonitored keys the timestamp of the system's last poll.
func SystemLastMonitored(systemID string) string {
	return suffixed(systemLastMonitored, systemID)
}

// SystemWentDownAt keys the timestamp a system went down, empty when up.
func SystemWentDownAt(systemID string) string {
	return suffixed(systemWentDownAt, systemID)
}

// GitHub repository keys.
const (
	githubNoOfReleases  = "gh1"
	githubLastMonitored = "gh2"
)

// GitHubNoOfReleases keys the release count for a repository.
func GitHubNoOfReleases(repoID string) string {
	return suffixed(githubNoOfReleases, repoID)
}

// GitHubLastMonitored keys the timestamp of the repository's last poll.
func GitHubLastMonitored(repoID string) string {
	return suffixed(githubLastMonitored, repoID)
}

// DockerHub repository keys.
const (
	dockerHubLastTags      = "dh1"
	dockerHubLastMonitored = "dh2"
)

// DockerHubLastTags keys the most recent tag set for a repository.
func DockerHubLastTags(repoID string) string {
	return suffixed(dockerHubLastTags, repoID)
}

// DockerHubLastMonitored keys the timestamp of the repository's last poll.
func DockerHubLastMonitored(repoID string) string {
	return suffixed(dockerHubLastMonitored, repoID)
}

// AlertState keys the stored alerter state for a metric key produced by one
// of the metric helpers above.
func AlertState(metricKey string) string {
	return "alert_" + metricKey
}

// ComponentHeartbeat keys the liveness heartbeat of a named component.
func ComponentHeartbeat(componentName string) string {
	return "c1_" + componentName
}

// ChainMuteAlerts keys the per-chain alert mute flag. It lives inside the
// chain's parent hash like every other chain-scoped key.
func ChainMuteAlerts() string {
	return "chain_mute_alerts"
}

// AlerterMute keys the global mute flag covering every chain.
func AlerterMute() string {
	return "alerter_mute"
}
