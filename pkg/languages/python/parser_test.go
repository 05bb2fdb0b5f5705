package python

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const flatIfsSource = `def f(t):
    if t == 1:
        return 1
    if t == 2:
        return 2
    if t == 3:
        return 3
    return 0
`

const nestedIfsSource = `def g(a, b, c):
    if a:
        if b:
            if c:
                return 1
    return 0
`

const booleanChainSource = `def h(a, b, c, d):
    return a and b and c and d
`

const booleanMixedChainSource = `def k(a, b, c):
    return a and b or c
`

const elifChainSource = `def m(a, b):
    if a:
        return 1
    elif b:
        return 2
    else:
        return 3
`

const recursiveSource = `def fact(n):
    if n <= 1:
        return 1
    return n * fact(n - 1)
`

const nestedDefSource = `def outer(a, b):
    if a:
        def inner(b):
            if b:
                return 1
        return inner(b)
    return 0
`

func TestPythonFlatIfsCyclomaticAndCognitive(t *testing.T) {
	p := NewParser()

	funcs, err := p.ParseFunctions([]byte(flatIfsSource))
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, 4, funcs[0].Cyclomatic)

	cognitive, err := p.ParseCognitive([]byte(flatIfsSource))
	require.NoError(t, err)
	assert.Equal(t, 3, cognitive["f"])
}

func TestPythonNestedIfsCyclomaticAndCognitive(t *testing.T) {
	p := NewParser()

	funcs, err := p.ParseFunctions([]byte(nestedIfsSource))
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, 4, funcs[0].Cyclomatic)

	cognitive, err := p.ParseCognitive([]byte(nestedIfsSource))
	require.NoError(t, err)
	assert.Equal(t, 6, cognitive["g"])
}

func TestPythonBooleanChainHomogeneous(t *testing.T) {
	p := NewParser()
	cognitive, err := p.ParseCognitive([]byte(booleanChainSource))
	require.NoError(t, err)
	assert.Equal(t, 1, cognitive["h"])
}

func TestPythonBooleanChainMixed(t *testing.T) {
	p := NewParser()
	cognitive, err := p.ParseCognitive([]byte(booleanMixedChainSource))
	require.NoError(t, err)
	assert.Equal(t, 2, cognitive["k"])
}

func TestPythonElifElseNonStacking(t *testing.T) {
	p := NewParser()

	funcs, err := p.ParseFunctions([]byte(elifChainSource))
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	// if (+1) + elif (+1) = 2 decision points, base 1 => 3
	assert.Equal(t, 3, funcs[0].Cyclomatic)

	cognitive, err := p.ParseCognitive([]byte(elifChainSource))
	require.NoError(t, err)
	// if (+1) + elif (+1) + else (+1), none nested => 3
	assert.Equal(t, 3, cognitive["m"])
}

func TestPythonDirectRecursionCounted(t *testing.T) {
	p := NewParser()
	cognitive, err := p.ParseCognitive([]byte(recursiveSource))
	require.NoError(t, err)
	// if (1+0) + recursive call (+1) = 2, matching the Go parity case.
	assert.Equal(t, 2, cognitive["fact"])
}

func TestPythonNestedDefScoredIndependentlyNotDoubleCounted(t *testing.T) {
	p := NewParser()

	funcs, err := p.ParseFunctions([]byte(nestedDefSource))
	require.NoError(t, err)
	require.Len(t, funcs, 2)

	byName := make(map[string]int, len(funcs))
	for _, fn := range funcs {
		byName[fn.Name] = fn.Cyclomatic
	}
	// outer's own decision points are just "if a" (base 1 + 1); inner's
	// nested "if b" must not also count toward outer's cyclomatic total.
	assert.Equal(t, 2, byName["outer"])
	assert.Equal(t, 2, byName["inner"])

	cognitive, err := p.ParseCognitive([]byte(nestedDefSource))
	require.NoError(t, err)
	// outer's own control flow is just "if a" (+1); inner's nested "if b"
	// must not also inherit outer's nesting and inflate outer's score.
	assert.Equal(t, 1, cognitive["outer"])
	// inner is scored on its own: just "if b" (+1).
	assert.Equal(t, 1, cognitive["inner"])
}

func TestPythonEmptyFileYieldsNoFunctions(t *testing.T) {
	p := NewParser()
	funcs, err := p.ParseFunctions([]byte("x = 1\n"))
	require.NoError(t, err)
	assert.Empty(t, funcs)
}

func TestPythonDecoratedFunctionDiscovered(t *testing.T) {
	src := `@staticmethod
def decorated(x):
    if x:
        return 1
    return 0
`
	p := NewParser()
	funcs, err := p.ParseFunctions([]byte(src))
	require.NoError(t, err)
	require.Len(t, funcs, 1)
	assert.Equal(t, "decorated", funcs[0].Name)
	assert.Equal(t, 2, funcs[0].Cyclomatic)
}
