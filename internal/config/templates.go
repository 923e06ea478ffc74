package config

// Template is the commented engram.yaml scaffold written by 'engram init'.
// ${env.VAR} references interpolate from the environment at load time.
const Template = `# engram.yaml - engram configuration
version: "1"

# Record persistence
store:
  driver: sqlite            # memory | sqlite
  path: ${env.HOME}/.engram/engram.db

# Embedding engine
engine:
  provider: fallback        # fallback | onnx
  # model_path: models/all-MiniLM-L6-v2.onnx
  # tokenizer_path: models/tokenizer.json
  cache_entries: 4096

# Compaction policy
compaction:
  auto: true
  max_memories: 1000
  max_age_days: 90
  similarity_threshold: 0.95
  low_access_threshold: 0.1
  sample_size: 50
  min_sample: 10
  pair_ratio: 0.2

# Logging and metrics
telemetry:
  verbose: false
  # log_file: ${env.HOME}/.engram/engram.log
  # metrics_file: ${env.HOME}/.engram/metrics.jsonl

# Event hooks
# hooks:
#   - name: audit
#     type: log
#     events: [memory.stored, compaction.completed]
#     level: info
`
