package fleet

var defaultServers = []Server{
	{ID: "nyc-edge-1", Name: "Aether Prime", Location: "New York, United States", CountryCode: "US", Latency: 18, Load: 42, Status: StatusOnline, Tags: []string{"Premium", "Quantum Shield", "WireGuard"}},
	{ID: "lon-core-2", Name: "Cerulean Gate", Location: "London, United Kingdom", CountryCode: "GB", Latency: 26, Load: 65, Status: StatusOnline, Tags: []string{"Standard", "OpenVPN", "Tor Fusion"}},
	{ID: "sgp-phoenix-1", Name: "Helios Array", Location: "Singapore", CountryCode: "SG", Latency: 72, Load: 51, Status: StatusOnline, Tags: []string{"Premium", "WireGuard", "Streaming"}},
	{ID: "syd-aurora-1", Name: "Aurora Tide", Location: "Sydney, Australia", CountryCode: "AU", Latency: 104, Load: 58, Status: StatusMaintenance, Tags: []string{"Standard", "OpenVPN"}},
	{ID: "fra-lumen-3", Name: "Lumen Pillar", Location: "Frankfurt, Germany", CountryCode: "DE", Latency: 38, Load: 34, Status: StatusOnline, Tags: []string{"Premium", "WireGuard", "Double-Hop"}},
	{ID: "bue-horizon-1", Name: "Horizon Echo", Location: "Buenos Aires, Argentina", CountryCode: "AR", Latency: 128, Load: 71, Status: StatusOffline, Tags: []string{"Standard", "WireGuard"}},
}

// DefaultServers 内置节点目录的副本
func DefaultServers() []Server {
	return cloneServers(defaultServers)
}

func cloneServers(in []Server) []Server {
	out := make([]Server, len(in))
	for i, s := range in {
		s.Tags = append([]string(nil), s.Tags...)
		out[i] = s
	}
	return out
}
