package weave

import (
	"fmt"

	"github.com/mosaicnetworks/weave/src/topology"
)

func fmtDecls(decls []topology.Declaration) string {
	res := make([]string, len(decls))
	for i, d := range decls {
		res[i] = d.String()
	}
	return fmt.Sprint(res)
}
