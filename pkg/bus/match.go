package bus

import "strings"

// Match reports whether a topic matches a subscription filter using
// hierarchical segment comparison. A '+' segment matches exactly one
// arbitrary segment; a '#' segment is only legal as the final filter segment
// and matches zero or more trailing segments. All other segments require
// exact equality.
func Match(filter, topic string) bool {
	if filter == topic {
		return true
	}

	// No wildcards means equality was the only way to match.
	if !strings.Contains(filter, "+") && !strings.Contains(filter, "#") {
		return false
	}

	filterParts := strings.Split(filter, "/")
	topicParts := strings.Split(topic, "/")

	for i, part := range filterParts {
		if part == "#" {
			// '#' must be the last filter segment.
			return i == len(filterParts)-1
		}
		if i >= len(topicParts) {
			return false
		}
		if part != "+" && part != topicParts[i] {
			return false
		}
	}

	return len(filterParts) == len(topicParts)
}
