package project

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferImports(t *testing.T) {
	t.Parallel()

	excluded := exclusionSet(DefaultStdlibExclusions)

	testCases := []struct {
		name string
		src  string
		want []string
	}{
		{
			name: "plain and from imports",
			src:  "import requests\nfrom flask import Flask\n",
			want: []string{"flask", "requests"},
		},
		{
			name: "dotted path keeps the root segment",
			src:  "import matplotlib.pyplot as plt\nfrom google.cloud import storage\n",
			want: []string{"google", "matplotlib"},
		},
		{
			name: "stdlib names removed",
			src:  "import os\nimport sys\nimport json\nfrom pathlib import Path\nimport tkinter as tk\nimport numpy\n",
			want: []string{"numpy"},
		},
		{
			name: "duplicates collapse",
			src:  "import requests\nfrom requests import Session\nimport requests.adapters\n",
			want: []string{"requests"},
		},
		{
			name: "case sensitive",
			src:  "import PIL\nimport pil\n",
			want: []string{"PIL", "pil"},
		},
		{
			name: "indented and relative imports are not line-anchored matches",
			src:  "def f():\n    import yaml\nfrom . import sibling\n# import commented\n",
			want: []string{},
		},
		{
			name: "no imports",
			src:  "print('hi')\n",
			want: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, InferImports(tc.src, excluded))
		})
	}
}

func TestInferImports_ExcludesEveryDefaultName(t *testing.T) {
	t.Parallel()

	src := ""
	for _, name := range DefaultStdlibExclusions {
		src += "import " + name + "\n"
	}
	src += "import rich\n"

	require.Equal(t, []string{"rich"}, InferImports(src, exclusionSet(DefaultStdlibExclusions)))
}

func TestInferImports_Idempotent(t *testing.T) {
	t.Parallel()

	src := "import b\nimport a\nfrom c.d import e\n"
	excluded := exclusionSet(DefaultStdlibExclusions)

	first := InferImports(src, excluded)
	for i := 0; i < 5; i++ {
		require.Equal(t, first, InferImports(src, excluded))
	}
}
