package fob

import (
	"errors"
	"fmt"
	log "github.com/sirupsen/logrus"
	"github.com/tarm/serial"
	enumerator "go.bug.st/serial"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var listPorts = enumerator.GetPortsList

var comPattern = regexp.MustCompile(`(?i)^COM(\d+)$`)

// ComNumber extracts n from a "COMn" port name.
func ComNumber(name string) (int, bool) {
	m := comPattern.FindStringSubmatch(strings.TrimSpace(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	return n, err == nil
}

// testPort opens portName and waits briefly for any byte. A streaming bird
// answers immediately, an idle one only accepts the port.
func testPort(portName string, baud int) (opened bool, active bool) {
	c := &serial.Config{Name: portName, Baud: baud, ReadTimeout: time.Millisecond * 500}
	s, err := serial.OpenPort(c)
	if err != nil {
		log.Debugf("probe %s: %v", portName, err)
		return false, false
	}
	defer func() { _ = s.Close() }()

	buffer := make([]byte, 256)
	n, err := s.Read(buffer)
	if err != nil && n == 0 {
		log.Debugf("probe %s: no data: %v", portName, err)
	}
	return true, n > 0
}

// ProbePorts lists the serial ports that can be opened at baud. Ports that
// already carry data are marked as streaming.
func ProbePorts(baud int) ([]string, error) {
	ports, err := listPorts()
	if err != nil {
		return nil, fmt.Errorf("cannot list serial ports: %w", err)
	}

	var validPorts []string
	for _, portName := range ports {
		opened, active := testPort(portName, baud)
		if !opened {
			continue
		}
		if active {
			portName += " (streaming)"
		}
		validPorts = append(validPorts, portName)
	}

	if len(validPorts) == 0 {
		return nil, errors.New("no valid ports found")
	}
	return validPorts, nil
}
