// Package cluster exposes cluster membership to scheduling clients: which
// supervisors exist and which supervisor hosts a given supervisor-wide
// singleton. Supervisor membership comes from a Locator; StaticLocator serves
// fixed topologies and RedisLocator reads a shared Redis set.
package cluster
