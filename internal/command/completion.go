// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/pexctl/pexctl/internal/meta"
)

const bashCompletionScript = `# bash completion for pexctl
# Minimal stand-in when the bash-completion package is absent.
if ! declare -F _get_comp_words_by_ref >/dev/null 2>&1; then
  _get_comp_words_by_ref() {
    cur=${COMP_WORDS[COMP_CWORD]}
    prev=${COMP_WORDS[COMP_CWORD-1]}
  }
fi

_pexctl()
{
    local cur prev cmd
    COMPREPLY=()
    _get_comp_words_by_ref -n : cur prev

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "cq keep pi pq td vq xs completion --help --version" -- "$cur") )
        return 0
    fi

    cmd=${COMP_WORDS[1]}
    local common="--attrs -a --color -c --filter -f --local -l --output -o --sort -s --titles -t --tldr"

    # Has a RootDir (first non-flag after the subcommand) shown up in the
    # words typed so far? The current token is still being edited, so it
    # does not count.
    local rootdir_seen=0
    local w
    for w in "${COMP_WORDS[@]:2:COMP_CWORD-2}"; do
        if [[ $w != -* ]]; then
            rootdir_seen=1
            break
        fi
    done

    case "$cmd" in
        cq)
            local opts="$common --schema --diff --diff_filter --host -h --org --passphrase --raw --label -w --limit"
            ;;
        keep)
            local opts="$common --schema --description -m --ev --host -h --org --label -w --limit"
            ;;
        pi)
            local opts="$common --passphrase -p --ev"
            ;;
        pq)
            local opts="$common --schema --chop --ev --host -h --org --passphrase --short --label -w --limit"
            ;;
        td)
            local opts="--color -c --stats --tldr"
            ;;
        vq)
            local opts="$common --schema --host -h --org --label -w --limit -n"
            ;;
        xs)
            local opts="$common --passphrase -p"
            ;;
        completion)
            local opts="bash zsh"
            COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
            return 0
            ;;
        *)
            local opts="$common"
            ;;
    esac

    if [[ "$prev" == "--output" || "$prev" == "-o" ]]; then
        COMPREPLY=( $(compgen -W "text json raw yaml" -- "$cur") )
        return 0
    fi

    # Offer flags once a dash is started or the RootDir slot is taken.
    if [[ "$cur" == -* || $rootdir_seen -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "$opts" -- "$cur") )
        return 0
    fi

    # td and xs complete files; the rest take an optional RootDir.
    case "$cmd" in
        td|xs)
            COMPREPLY=( $(compgen -o default -- "$cur") )
            ;;
        *)
            COMPREPLY=( $(compgen -o dirnames -- "$cur") )
            ;;
    esac
    return 0
}

complete -F _pexctl pexctl
`

const zshCompletionScript = `#compdef pexctl

_pexctl() {
  local -a cmds
  cmds=(
    'cq:compare export versions'
    'keep:keep an export version in the local archive'
    'pi:interactive prompt inspector'
    'pq:prompt query'
    'td:text diff two files'
    'vq:export version query'
    'xs:export summary'
    'completion:generate shell completion script'
  )

  local -a common
  common=(
  '(-a --attrs)'{-a,--attrs}'[attributes to include in results]:attrs'
  '(-c --color)'{-c,--color}'[colorize text output]'
  '(-f --filter)'{-f,--filter}'[filters to apply to results]:filters'
  '(-l --local)'{-l,--local}'[render timestamps in local time]'
  '(-o --output)'{-o,--output}'[output format]:format:(text json raw yaml)'
  '(-s --sort)'{-s,--sort}'[attributes to sort by]:attrs'
  '(-t --titles)'{-t,--titles}'[column titles in text output]'
  '--tldr[show the tldr page]'
  )

  if (( CURRENT == 2 )); then
    _describe -t commands 'pexctl commands' cmds
    return
  fi

  local curcontext="$curcontext" state line
  case $words[2] in
    cq)
      _arguments -C \
        $common \
        '--schema[print the column schema]' \
        '--diff[pick the export versions to compare]' \
        '--diff_filter[attributes to ignore when comparing]' \
        '--host[host to use for all commands]' \
        '--org[organization to use]' \
        '--passphrase[encrypted export passphrase]' \
        '--raw[show the raw document delta]' \
        '(-w --label)'{-w,--label}'[export label]' \
        '::RootDir:_directories'
      ;;
    keep)
      _arguments -C \
        $common \
        '--schema[print the column schema]' \
        '(-m --description)'{-m,--description}'[description to store]' \
        '--ev[export version to keep]' \
        '--host[host to use for all commands]' \
        '--org[organization to use]' \
        '(-w --label)'{-w,--label}'[export label]' \
        '::RootDir:_directories'
      ;;
    pi)
      _arguments -C \
        '(-p --passphrase)'{-p,--passphrase}'[export passphrase]' \
        '--ev[export version]' \
        '::RootDir:_directories'
      ;;
    pq)
      _arguments -C \
        $common \
        '--schema[print the column schema]' \
        '--chop[chop common prompt name prefix]' \
        '--ev[export version to query]' \
        '--host[host to use for all commands]' \
        '--org[organization to use]' \
        '--passphrase[encrypted export passphrase]' \
        '--short[collapse dotted prompt name paths]' \
        '(-w --label)'{-w,--label}'[export label]' \
        '::RootDir:_directories'
      ;;
    td)
      _arguments -C \
        '(-c --color)'{-c,--color}'[colorize text output]' \
        '--stats[print change counts only]' \
        '1:old file:_files' \
        '2:new file:_files'
      ;;
    vq)
      _arguments -C \
        $common \
        '--schema[print the column schema]' \
        '(-n --limit)'{-n,--limit}'[limit versions returned]:limit' \
        '--host[host to use for all commands]' \
        '--org[organization to use]' \
        '(-w --label)'{-w,--label}'[export label]' \
        '::RootDir:_directories'
      ;;
    xs)
      _arguments -C \
        $common \
        '(-p --passphrase)'{-p,--passphrase}'[encrypted export passphrase]' \
        '::export file:_files'
      ;;
    completion)
      _arguments '1: :((bash zsh))'
      ;;
    *)
      _arguments -C $common '*:directory:_directories'
      ;;
  esac
}

# Sourcing this file directly skips the fpath autoload path, so bring
# compsys up before registering.
if ! typeset -f compdef >/dev/null 2>&1; then
  autoload -Uz compinit && compinit -i
fi
compdef _pexctl pexctl
`

func completionCommandAction(ctx context.Context, cmd *cli.Command) error {
	shell := cmd.Args().First()
	if shell == "" {
		// No argument given. The login shell is the best guess.
		shell = filepath.Base(os.Getenv("SHELL"))
	}

	switch shell {
	case "bash":
		fmt.Fprint(os.Stdout, bashCompletionScript)
	case "zsh":
		fmt.Fprint(os.Stdout, zshCompletionScript)
	default:
		fmt.Fprintln(os.Stderr, "usage: pexctl completion [bash|zsh]")
	}

	return nil
}

func completionCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "completion",
		Usage:     "generate shell completion script",
		UsageText: "pexctl completion [bash|zsh]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Action: completionCommandAction,
	}
}
