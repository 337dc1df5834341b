package store

import "strings"

// Path layout under the store root. Frozen: any existing store contents
// were written with exactly these segments.
//
//	rooms/{roomId}/title
//	rooms/{roomId}/endedAt
//	rooms/{roomId}/questions/{questionId}/content
//	rooms/{roomId}/questions/{questionId}/author/{name,avatarUrl}
//	rooms/{roomId}/questions/{questionId}/isAnswered
//	rooms/{roomId}/questions/{questionId}/isHighlighted
//	rooms/{roomId}/questions/{questionId}/likes/{likeId}/authorId

const RoomsPath = "rooms"

func RoomPath(roomID string) string {
	return Join(RoomsPath, roomID)
}

func QuestionsPath(roomID string) string {
	return Join(RoomsPath, roomID, "questions")
}

func QuestionPath(roomID, questionID string) string {
	return Join(RoomsPath, roomID, "questions", questionID)
}

func LikesPath(roomID, questionID string) string {
	return Join(RoomsPath, roomID, "questions", questionID, "likes")
}

func LikePath(roomID, questionID, likeID string) string {
	return Join(RoomsPath, roomID, "questions", questionID, "likes", likeID)
}

func Join(segments ...string) string {
	return strings.Join(segments, "/")
}

// Split breaks a path into segments, dropping empty ones so that leading,
// trailing and doubled slashes are tolerated.
func Split(path string) []string {
	raw := strings.Split(path, "/")
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
