package job

import (
	"errors"
	"fmt"
	"path"
	"regexp"
	"strings"
)

var ErrMalformedKey = errors.New("malformed source key")

// versionRe matches the "source-v{N}" filename convention. Legacy uploads
// predate the version suffix and are treated as v1.
var versionRe = regexp.MustCompile(`^source-v(\d+)\.[^.]+$`)

// Descriptor identifies one encode job. Built once at startup from the
// source key and process inputs, read-only afterwards.
type Descriptor struct {
	CourseID          string
	LessonID          string
	ContentID         string
	Version           string
	SourceBucket      string
	SourceKey         string
	DestinationBucket string
}

// Parse extracts the job identity from a source object key of the form
//
//	.../courses/{courseId}/lessons/{lessonId}/lesson-contents/{contentId}/source-v{N}.ext
//
// A key missing any of the courses/lessons/lesson-contents segments is a
// producer bug, not a transient fault, and fails with ErrMalformedKey.
func Parse(sourceKey string) (Descriptor, error) {
	segments := strings.Split(strings.Trim(sourceKey, "/"), "/")

	courseID, err := segmentAfter(segments, "courses")
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %q", err, sourceKey)
	}
	lessonID, err := segmentAfter(segments, "lessons")
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %q", err, sourceKey)
	}
	contentID, err := segmentAfter(segments, "lesson-contents")
	if err != nil {
		return Descriptor{}, fmt.Errorf("%w: %q", err, sourceKey)
	}

	return Descriptor{
		CourseID:  courseID,
		LessonID:  lessonID,
		ContentID: contentID,
		Version:   parseVersion(path.Base(sourceKey)),
		SourceKey: sourceKey,
	}, nil
}

func segmentAfter(segments []string, marker string) (string, error) {
	for i, s := range segments {
		if s == marker && i+1 < len(segments) && segments[i+1] != "" {
			return segments[i+1], nil
		}
	}
	return "", fmt.Errorf("%w: missing %q segment", ErrMalformedKey, marker)
}

func parseVersion(filename string) string {
	if m := versionRe.FindStringSubmatch(filename); m != nil {
		return "v" + m[1]
	}
	return "v1"
}

// OutputPrefix is the destination key prefix for the HLS package.
// Consumers depend on this exact layout.
func (d Descriptor) OutputPrefix(environment string) string {
	return fmt.Sprintf("%s/public/courses/%s/lessons/%s/lesson-contents/%s/hls/%s",
		environment, d.CourseID, d.LessonID, d.ContentID, d.Version)
}

// MasterKey is the destination key of the master manifest.
func (d Descriptor) MasterKey(environment string) string {
	return d.OutputPrefix(environment) + "/master.m3u8"
}
