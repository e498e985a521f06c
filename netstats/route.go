// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

package netstats // import "github.com/nodemeter/nodemeter/netstats"

import (
	"errors"
	"fmt"
	"net"

	"github.com/jsimonetti/rtnetlink/v2"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sys/unix"
)

// RouteInterface returns the name of the interface that carries traffic to
// destination, resolved through the kernel routing table. destination may be
// a hostname, an IP address or a host:port pair.
func RouteInterface(destination string) (string, error) {
	conn, err := rtnetlink.Dial(nil)
	if err != nil {
		return "", errors.New("failed to connect to netlink layer")
	}
	defer conn.Close()

	dstIPs, err := resolveDestination(destination)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %v", destination, err)
	}
	if len(dstIPs) == 0 {
		return "", fmt.Errorf("failed to resolve %s: no IP address", destination)
	}

	// We might get multiple IP addresses, check all of them as some may not
	// be routable (like an IPv6 address on an IPv4 network).
	for _, ip := range dstIPs {
		index, err := interfaceIndexForIP(conn, ip)
		if err != nil {
			log.Debugf("No route to %s (%s): %v", destination, ip, err)
			continue
		}

		iface, err := net.InterfaceByIndex(index)
		if err != nil {
			log.Debugf("Failed to resolve interface index %d: %v", index, err)
			continue
		}
		return iface.Name, nil
	}

	return "", fmt.Errorf("no route found to %s", destination)
}

func interfaceIndexForIP(conn *rtnetlink.Conn, ip net.IP) (int, error) {
	req := &rtnetlink.RouteMessage{
		Family: addressFamily(ip),
		Table:  unix.RT_TABLE_MAIN,
		Attributes: rtnetlink.RouteAttributes{
			Dst: ip,
		},
	}

	routes, err := conn.Route.Get(req)
	if err != nil {
		return -1, fmt.Errorf("failed to get route: %v", err)
	}
	if len(routes) == 0 {
		return -1, errors.New("empty routing table")
	}

	return int(routes[0].Attributes.OutIface), nil
}

func addressFamily(ip net.IP) uint8 {
	if ip.To4() != nil {
		return unix.AF_INET
	}
	return unix.AF_INET6
}

func resolveDestination(destination string) ([]net.IP, error) {
	dstIPs, err := net.LookupIP(destination)
	if err == nil {
		return dstIPs, nil
	}

	// destination seems not to be a DNS name. Try to interpret it as a
	// host:port pair.
	host, _, err := net.SplitHostPort(destination)
	if err != nil {
		return nil, err
	}
	return net.LookupIP(host)
}
