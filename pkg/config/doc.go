/*
Package config owns the workspace layout under .foreman/ and the
TOML-backed configuration that every controller reads at startup:
section [app] (version, llm_command), [overseer] (max_workers), [costs]
(warn_threshold_usd, budget_usd), [code_host] (token, overridable by
FOREMAN_TOKEN), and [session] (current_codebase, maintained by the CLI).

Decode/encode is exposed behind a small key/value Store interface so a
caller never has to reach into the TOML document shape directly,
grounded on the teacher's preference for narrow collaborator interfaces
over ad hoc struct field access (pkg/vcs.Tool, pkg/codehost.Client).
*/
package config
