package planner

import (
	"sort"

	"github.com/mdn/stumptown-deployer/pkg/s3client"
)

// Compare reconciles the local candidates against the remote listing
// using sizes only. It is pure and deterministic: keys absent remotely
// are new, keys with a different size changed for sure, and keys with an
// equal size need a hash check before a verdict. Remote keys with no
// local counterpart are left alone.
func Compare(local []LocalFile, remote map[string]s3client.ObjectInfo) CompareResult {
	result := CompareResult{
		New:           []LocalFile{},
		SizeMismatch:  []LocalFile{},
		NeedHashCheck: []LocalFile{},
	}

	for _, file := range local {
		obj, exists := remote[file.Key]
		switch {
		case !exists:
			result.New = append(result.New, file)
		case obj.Size != file.Size:
			result.SizeMismatch = append(result.SizeMismatch, file)
		default:
			result.NeedHashCheck = append(result.NeedHashCheck, file)
		}
	}

	sortByKey(result.New)
	sortByKey(result.SizeMismatch)
	sortByKey(result.NeedHashCheck)
	return result
}

func sortByKey(files []LocalFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].Key < files[j].Key
	})
}
