package main

import (
	"log"
	"sort"
	"strings"

	"github.com/JonYeb/sleeping_dogs_browser/pack"
	file_perm "github.com/JonYeb/sleeping_dogs_browser/pack/perm"
	"github.com/JonYeb/sleeping_dogs_browser/vfs"
)

// parseCheck loads every perm container under the game dir and reports
// what the normal load path silently tolerates. Duplicated uids matter
// because cross reference lookups resolve to the last chunk seen.
func parseCheck(rootfs vfs.Directory) {
	packList, err := rootfs.List()
	if err != nil {
		log.Fatal(err)
	}

	sort.Strings(packList)

	for _, fname := range packList {
		if !strings.HasSuffix(strings.ToUpper(fname), ".PERM.BIN") {
			continue
		}
		data, err := pack.GetInstanceHandler(rootfs, fname)
		if err != nil {
			log.Printf("Failed to load %q: %v", fname, err)
			continue
		}
		p, ok := data.(*file_perm.Perm)
		if !ok {
			continue
		}

		for _, issue := range p.Issues {
			log.Printf("Issue in %q: %s", fname, issue)
		}

		for _, chunk := range p.Chunks {
			if chunk.ParseError != nil {
				log.Printf("Broken chunk in %q: '%s' (%s): %v",
					fname, chunk.Name, file_perm.TypeTagName(chunk.Header.TypeTag), chunk.ParseError)
			}
			for _, other := range p.Chunks {
				if other.Id >= chunk.Id {
					break
				}
				if other.UID == chunk.UID {
					log.Printf("Conflicting uid 0x%.8x in %q: '%s' (%s) shadows '%s' (%s)",
						chunk.UID, fname,
						chunk.Name, file_perm.TypeTagName(chunk.Header.TypeTag),
						other.Name, file_perm.TypeTagName(other.Header.TypeTag))
					break
				}
			}
		}

		pack.FlushCachedInstance(fname)
	}
}
