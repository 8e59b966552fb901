package pagelog

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/pagelog/pageid"
)

var errBlobName = errors.New("pagelog: malformed blob name")

// blobRef identifies one persisted batch of a page.
//
// Names have the form
//
//	<topic>/<page>/<generation>-<minID>-<maxID>.<format>
//
// with every number zero-padded to 19 digits, so lexical order equals write
// order within a page.
type blobRef struct {
	Page       pageid.PageID
	Generation int64
	MinID      int64
	MaxID      int64
	Format     string
}

func topicPrefix(topic string) string {
	return topic + "/"
}

func pagePrefix(topic string, id pageid.PageID) string {
	return fmt.Sprintf("%s/%019d/", topic, id)
}

func (r blobRef) name(topic string) string {
	return fmt.Sprintf("%s%019d-%019d-%019d.%s", pagePrefix(topic, r.Page), r.Generation, r.MinID, r.MaxID, r.Format)
}

func parseBlobName(topic, name string) (blobRef, error) {
	rest, ok := strings.CutPrefix(name, topicPrefix(topic))
	if !ok {
		return blobRef{}, fmt.Errorf("%w: %q", errBlobName, name)
	}
	pageStr, file, ok := strings.Cut(rest, "/")
	if !ok {
		return blobRef{}, fmt.Errorf("%w: %q", errBlobName, name)
	}
	base, format, ok := strings.Cut(file, ".")
	if !ok || format == "" {
		return blobRef{}, fmt.Errorf("%w: %q", errBlobName, name)
	}
	parts := strings.Split(base, "-")
	if len(parts) != 3 {
		return blobRef{}, fmt.Errorf("%w: %q", errBlobName, name)
	}

	var nums [4]int64
	for i, s := range append([]string{pageStr}, parts...) {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return blobRef{}, fmt.Errorf("%w: %q", errBlobName, name)
		}
		nums[i] = n
	}

	ref := blobRef{
		Page:       pageid.PageID(nums[0]),
		Generation: nums[1],
		MinID:      nums[2],
		MaxID:      nums[3],
		Format:     format,
	}
	if ref.MinID > ref.MaxID || !ref.Page.Contains(ref.MinID) || !ref.Page.Contains(ref.MaxID) {
		return blobRef{}, fmt.Errorf("%w: %q", errBlobName, name)
	}
	return ref, nil
}
