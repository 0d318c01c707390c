package service

import "strings"

// Namespace is the reserved prefix every server topic and subscription
// name carries on the wire, kept distinct from the bare service id so
// operators can tell this runtime's resources apart from anything else on
// the same broker.
const Namespace = "octue.services"

// answersSegment separates a child's id from the question uuid in a reply
// channel's name.
const answersSegment = "answers"

// topicPath returns the fully namespaced topic name for a service id,
// taking care not to double the prefix if id was supplied already
// carrying it.
func topicPath(id string) string {
	if strings.HasPrefix(id, Namespace+".") {
		return id
	}
	return Namespace + "." + id
}

// replyChannelName returns the bare (un-namespaced) name of the single-use
// topic and subscription a question's reply channel uses: the asking
// service's own id never appears in it, only the child being asked and
// the question's uuid, since the channel is owned exclusively by the
// asker regardless of who created it.
func replyChannelName(childID, questionUUID string) string {
	return childID + "." + answersSegment + "." + questionUUID
}
