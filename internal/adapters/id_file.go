package adapters

import (
	"bufio"
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"resmerge/internal/ports"
	"resmerge/internal/types"
)

// IDFileProvider confirms ids listed in R.txt symbol files, one
// "int <type> <name> <value>" line per symbol.
type IDFileProvider struct {
	ids map[string]int32
}

func NewIDFileProvider() *IDFileProvider {
	return &IDFileProvider{ids: map[string]int32{}}
}

// LoadIDFiles reads every path into one provider. Later files override
// earlier ones.
func LoadIDFiles(paths ...string) (*IDFileProvider, error) {
	provider := NewIDFileProvider()
	for _, path := range paths {
		if err := provider.Load(path); err != nil {
			return nil, err
		}
	}
	return provider, nil
}

func (p *IDFileProvider) Load(path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("id file not found: " + path).
			WithCause(err)
	}
	scanner := bufio.NewScanner(bytes.NewReader(content))
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		// Styleable arrays ("int[] styleable Foo { ... }") carry no id.
		if fields[0] != "int" {
			continue
		}
		if len(fields) != 4 {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(path + ":" + strconv.Itoa(line) + ": invalid symbol line")
		}
		resType, ok := types.ParseResourceType(fields[1])
		if !ok {
			continue
		}
		value, err := strconv.ParseInt(fields[3], 0, 64)
		if err != nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(path + ":" + strconv.Itoa(line) + ": invalid symbol value " + fields[3]).
				WithCause(err)
		}
		p.ids[idKey(resType, fields[2])] = int32(value)
	}
	return scanner.Err()
}

func (p *IDFileProvider) ID(resType types.ResourceType, name string) (int32, bool) {
	id, ok := p.ids[idKey(resType, name)]
	return id, ok
}

func (p *IDFileProvider) Len() int {
	return len(p.ids)
}

func idKey(resType types.ResourceType, name string) string {
	return string(resType) + "/" + types.FlattenName(name)
}

var _ ports.IDProviderPort = (*IDFileProvider)(nil)
